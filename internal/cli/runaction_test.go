package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catshift/internal/catalog"
	"github.com/roach88/catshift/internal/catalogtest"
)

func seedActionTenant(t *testing.T) *catalogtest.Server {
	t.Helper()
	fake := catalogtest.New()
	f := &catalogtest.Fixture{
		Blueprints: []catalogtest.FixtureBlueprint{{Identifier: "service"}},
		Entities: []catalogtest.FixtureEntity{
			{Blueprint: "service", Identifier: "api"},
			{Blueprint: "service", Identifier: "worker"},
		},
	}
	f.Seed(fake)
	return fake
}

func runActionArgs(url string, extra ...string) []string {
	args := append([]string{
		"--api-url", url,
		"--blueprint", "service",
		"--action", "restart",
		"--interval", "1ms",
		"--timeout", "1s",
	}, credentialArgs()...)
	return append(args, extra...)
}

func TestRunActionAllSucceed(t *testing.T) {
	fake := seedActionTenant(t)
	url := startTenant(t, fake)

	cmd := NewRunActionCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, runActionArgs(url, "api", "worker")...)
	require.NoError(t, err)
	assert.Contains(t, out, "runs: 2 attempted, 0 failed")
	assert.Contains(t, out, "completed with no failures")
}

func TestRunActionFailedRunReported(t *testing.T) {
	fake := seedActionTenant(t)
	fake.ScriptRun("restart", catalog.RunStatusInProgress, catalog.RunStatusFailure)
	url := startTenant(t, fake)

	cmd := NewRunActionCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, runActionArgs(url, "api")...)
	require.Error(t, err)
	assert.Equal(t, ExitDegraded, GetExitCode(err))
	assert.Contains(t, out, "finished with status FAILURE")
}

func TestRunActionUnknownEntityReported(t *testing.T) {
	fake := seedActionTenant(t)
	url := startTenant(t, fake)

	cmd := NewRunActionCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, runActionArgs(url, "api", "ghost")...)
	require.Error(t, err)
	assert.Equal(t, ExitDegraded, GetExitCode(err))

	// The known entity still ran to completion.
	assert.Contains(t, out, "runs: 2 attempted, 1 failed")
	assert.Contains(t, out, "runs/ghost")
}

func TestRunActionTimeoutReported(t *testing.T) {
	fake := seedActionTenant(t)
	fake.ScriptRun("restart", catalog.RunStatusInProgress)
	url := startTenant(t, fake)

	cmd := NewRunActionCommand(&RootOptions{Format: "text"})
	args := append([]string{
		"--api-url", url,
		"--blueprint", "service",
		"--action", "restart",
		"--interval", "1ms",
		"--timeout", "5ms",
		"api",
	}, credentialArgs()...)
	out, err := execute(t, cmd, args...)
	require.Error(t, err)
	assert.Equal(t, ExitDegraded, GetExitCode(err))
	assert.Contains(t, out, "not finished after")
}

func TestRunActionRequiresFlags(t *testing.T) {
	cmd := NewRunActionCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, "api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
