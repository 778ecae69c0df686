package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/catshift/internal/client"
)

// Environment variables consulted when credential flags are not given.
// Cross-tenant commands use the SOURCE/DEST pairs; single-tenant commands
// use the plain pair.
const (
	EnvClientID     = "CATSHIFT_CLIENT_ID"
	EnvClientSecret = "CATSHIFT_CLIENT_SECRET"

	EnvSourceClientID     = "CATSHIFT_SOURCE_CLIENT_ID"
	EnvSourceClientSecret = "CATSHIFT_SOURCE_CLIENT_SECRET"
	EnvDestClientID       = "CATSHIFT_DEST_CLIENT_ID"
	EnvDestClientSecret   = "CATSHIFT_DEST_CLIENT_SECRET"
)

// resolveCredentials fills empty flag values from the environment and
// rejects anything still missing. label names the tenant in errors
// ("source", "destination", or "" for single-tenant commands).
func resolveCredentials(id, secret, envID, envSecret, label string) (client.Credentials, error) {
	if id == "" {
		id = os.Getenv(envID)
	}
	if secret == "" {
		secret = os.Getenv(envSecret)
	}
	if id == "" || secret == "" {
		what := "credentials"
		if label != "" {
			what = label + " credentials"
		}
		return client.Credentials{}, fmt.Errorf("%s missing: set flags or %s/%s", what, envID, envSecret)
	}
	return client.Credentials{ClientID: id, ClientSecret: secret}, nil
}

// connect builds an authenticated client for one tenant. A rejected
// authentication is fatal for the whole run.
func connect(ctx context.Context, apiURL string, creds client.Credentials) (*client.Client, error) {
	c := client.New(apiURL)
	if err := c.Authenticate(ctx, creds); err != nil {
		return nil, err
	}
	return c, nil
}
