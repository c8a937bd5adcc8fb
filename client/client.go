// Package client talks to the remote BioAccess authority: credential and
// biometric verification, enrollment, clearance-gated data, audit reports,
// and user administration. Successful authentications update the session
// store; failures map onto a small typed taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/analuiza2102/bioaccess/session"
)

// Client is a thin, stateless wrapper over the remote API. The only state it
// touches is the injected session store, and only through Login/Logout.
type Client struct {
	base     string
	http     *http.Client
	sessions *session.Store
	log      zerolog.Logger
	validate *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSessionStore wires the session store that successful authentications
// update and 401 responses invalidate.
func WithSessionStore(s *session.Store) Option {
	return func(c *Client) { c.sessions = s }
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     http.DefaultClient,
		log:      zerolog.Nop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// normalizeUsername trims and NFC-normalizes a username so the same visible
// identifier always hits the same account.
func normalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

// doJSON performs a JSON request. authed attaches the session bearer token
// and makes a 401 response invalidate the local session before the error is
// surfaced: a rejected token is dead, retrying it would loop.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out, authed)
}

// doMultipart performs a multipart/form-data request with string fields and
// one file part.
func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file []byte, out any, authed bool) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile(fileField, fileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(file); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out, authed)
}

func (c *Client) send(req *http.Request, out any, authed bool) error {
	if authed {
		token, ok := c.token()
		if !ok {
			return ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("api request")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := readAPIError(resp)
		c.log.Debug().Int("status", apiErr.Status).Str("message", apiErr.Message).Msg("api error")
		if authed && resp.StatusCode == http.StatusUnauthorized && c.sessions != nil {
			// 401 means the held token is no longer valid. 403 is a
			// point-in-time denial and leaves the session intact.
			c.sessions.Logout()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrConnectivity, err)
	}
	return nil
}

func (c *Client) token() (string, bool) {
	if c.sessions == nil {
		return "", false
	}
	return c.sessions.Token()
}
