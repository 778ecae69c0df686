package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"migrate", "wipe", "run-action", "history"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	_, err := execute(t, cmd, "--format", "xml", "history", "--db", "ignored")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootHelp(t *testing.T) {
	cmd := NewRootCommand()
	out, err := execute(t, cmd, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "catshift")
	assert.Contains(t, out, "migrate")
}
