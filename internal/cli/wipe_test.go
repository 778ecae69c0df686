package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catshift/internal/catalogtest"
)

func seedWipeTenant(t *testing.T) *catalogtest.Server {
	t.Helper()
	fake := catalogtest.New()
	f := &catalogtest.Fixture{
		Blueprints: []catalogtest.FixtureBlueprint{
			{Identifier: "service"},
			{Identifier: "team"},
		},
		Entities: []catalogtest.FixtureEntity{
			{Blueprint: "service", Identifier: "a"},
			{Blueprint: "service", Identifier: "b"},
			{Blueprint: "team", Identifier: "platform"},
		},
	}
	f.Seed(fake)
	return fake
}

func TestWipeNamedBlueprints(t *testing.T) {
	fake := seedWipeTenant(t)
	url := startTenant(t, fake)

	cmd := NewWipeCommand(&RootOptions{Format: "text"})
	args := append([]string{"--api-url", url, "service"}, credentialArgs()...)
	out, err := execute(t, cmd, args...)
	require.NoError(t, err)

	assert.Contains(t, out, "entities: 2 attempted, 0 failed")
	assert.Contains(t, out, "completed with no failures")
	assert.Empty(t, fake.Entities("service"))
	assert.Len(t, fake.Entities("team"), 1, "unnamed blueprints are untouched")
}

func TestWipeAll(t *testing.T) {
	fake := seedWipeTenant(t)
	url := startTenant(t, fake)

	cmd := NewWipeCommand(&RootOptions{Format: "text"})
	args := append([]string{"--api-url", url, "--all"}, credentialArgs()...)
	_, err := execute(t, cmd, args...)
	require.NoError(t, err)

	assert.Empty(t, fake.Entities("service"))
	assert.Empty(t, fake.Entities("team"))
}

func TestWipeRequiresTargets(t *testing.T) {
	url := startTenant(t, catalogtest.New())

	cmd := NewWipeCommand(&RootOptions{Format: "text"})
	args := append([]string{"--api-url", url}, credentialArgs()...)
	_, err := execute(t, cmd, args...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "nothing to wipe")
}

func TestWipeBadCredentials(t *testing.T) {
	url := startTenant(t, catalogtest.New())

	cmd := NewWipeCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd,
		"--api-url", url, "--client-id", "wrong", "--client-secret", "wrong", "--all")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestWipeCredentialsFromEnvironment(t *testing.T) {
	fake := seedWipeTenant(t)
	url := startTenant(t, fake)
	t.Setenv(EnvClientID, catalogtest.ClientID)
	t.Setenv(EnvClientSecret, catalogtest.ClientSecret)

	cmd := NewWipeCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, "--api-url", url, "service")
	require.NoError(t, err)
	assert.Empty(t, fake.Entities("service"))
}
