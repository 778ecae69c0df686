package engine

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/catshift/internal/catalogtest"
	"github.com/roach88/catshift/internal/client"
)

// testClient starts an HTTP server around the fake tenant and returns an
// authenticated client bound to it.
func testClient(t *testing.T, fake *catalogtest.Server) *client.Client {
	t.Helper()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	c := client.New(srv.URL)
	err := c.Authenticate(context.Background(), client.Credentials{
		ClientID:     catalogtest.ClientID,
		ClientSecret: catalogtest.ClientSecret,
	})
	require.NoError(t, err)
	return c
}
