// Package client implements the remote catalog API client.
//
// One Client is bound to one tenant: it holds the bearer token acquired by
// Authenticate and reuses it, read-only, for every subsequent call. A
// cross-tenant migration therefore uses two clients.
//
// Reads (list, get, search) return Go errors on any failure, because the
// callers cannot proceed without the data. Writes (create, patch, delete)
// return a Result value instead: a non-2xx application response is data for
// the caller's failure report, not a control-flow exception, so bulk
// callers can continue past individual rejections. Only transport-level
// problems (dial failure, context cancellation) surface as errors from
// writes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Credentials identify an API client of one tenant.
type Credentials struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// Result is the outcome of a single write call. OK is true for any 2xx
// response. Body holds the raw response body, which for failures is the
// service's structured error payload.
type Result struct {
	OK     bool
	Status int
	Body   string
}

// AuthError is returned when the service rejects credentials. It is fatal
// for a run: no later call can succeed without a token.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (status %d): %s", e.Status, strings.TrimSpace(e.Body))
}

// Client talks to the catalog management API of a single tenant.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Used by tests and by
// callers that need custom transports or timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// New creates a client for the API at baseURL (e.g. "https://api.example.com/v1").
// The client is unusable for authenticated calls until Authenticate succeeds.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges credentials for a bearer token and stores it on
// the client. A rejection returns *AuthError.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) error {
	body, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/access_token", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read auth response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &AuthError{Status: resp.StatusCode, Body: string(raw)}
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("auth response contained no access token")
	}
	c.token = payload.AccessToken
	return nil
}

// Authenticated reports whether a token has been acquired.
func (c *Client) Authenticated() bool { return c.token != "" }

// get performs an authenticated GET/POST read and decodes the JSON response
// into out. Any non-2xx status is an error.
func (c *Client) get(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	resp, raw, err := c.roundTrip(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// write performs an authenticated mutating call. Application-level failure
// (non-2xx) comes back inside the Result; only transport failures are
// errors.
func (c *Client) write(ctx context.Context, method, path string, query url.Values, payload any) (Result, error) {
	resp, raw, err := c.roundTrip(ctx, method, path, query, payload)
	if err != nil {
		return Result{}, err
	}
	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	return Result{OK: ok, Status: resp.StatusCode, Body: string(raw)}, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload any) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("%s %s: marshal payload: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: build request: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	return resp, raw, nil
}
