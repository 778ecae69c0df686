package cli

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/catshift/internal/catalogtest"
)

// startTenant serves a fake tenant and returns its base URL.
func startTenant(t *testing.T, fake *catalogtest.Server) string {
	t.Helper()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

// execute runs a command with args and captures its combined output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func credentialArgs() []string {
	return []string{
		"--client-id", catalogtest.ClientID,
		"--client-secret", catalogtest.ClientSecret,
	}
}
