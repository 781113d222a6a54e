// Package bluesky is a minimal AT Protocol XRPC client covering what the
// bot needs: login, reading back its own feed, uploading a blob and
// creating a post record.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrAuth is returned when the server rejects the account credentials.
var ErrAuth = errors.New("bluesky: authentication failed")

// ErrNoSession is returned by calls that need Login first.
var ErrNoSession = errors.New("bluesky: not logged in")

// Config holds connection and account settings.
type Config struct {
	BaseURL    string // PDS or entryway, e.g. "https://bsky.social"
	Identifier string // handle or DID
	Password   string // app password
	Timeout    time.Duration
}

// Client is a minimal HTTP client for the Bluesky XRPC API.
type Client struct {
	baseURL    string
	identifier string
	password   string
	http       *http.Client
	session    *Session
}

// Session is the authenticated account.
type Session struct {
	DID       string `json:"did"`
	Handle    string `json:"handle"`
	AccessJwt string `json:"accessJwt"`
}

// New creates a new Bluesky client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://bsky.social"
	}
	return &Client{
		baseURL:    base,
		identifier: strings.TrimSpace(cfg.Identifier),
		password:   cfg.Password,
		http:       &http.Client{Timeout: timeout},
	}
}

// Session returns the current session, or nil before Login.
func (c *Client) Session() *Session {
	if c == nil {
		return nil
	}
	return c.session
}

// Login creates a session with com.atproto.server.createSession.
func (c *Client) Login(ctx context.Context) error {
	if c == nil {
		return errors.New("nil bluesky client")
	}
	if c.identifier == "" || c.password == "" {
		return fmt.Errorf("%w: missing handle or password", ErrAuth)
	}
	body, err := json.Marshal(map[string]string{
		"identifier": c.identifier,
		"password":   c.password,
	})
	if err != nil {
		return err
	}
	var s Session
	err = c.call(ctx, http.MethodPost, "com.atproto.server.createSession", nil, "application/json", bytes.NewReader(body), false, &s)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusBadRequest) {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return err
	}
	if s.AccessJwt == "" || s.DID == "" {
		return fmt.Errorf("%w: session response missing token", ErrAuth)
	}
	c.session = &s
	return nil
}

// StatusError is a non-2xx XRPC response.
type StatusError struct {
	Method  string
	Code    int
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: status=%d error=%s message=%s", e.Method, e.Code, e.Err, e.Message)
}

// call performs one XRPC request and decodes the JSON response into out
// when out is non-nil.
func (c *Client) call(ctx context.Context, httpMethod, nsid string, query url.Values, contentType string, body io.Reader, auth bool, out any) error {
	endpoint := c.baseURL + "/xrpc/" + nsid
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		if c.session == nil {
			return ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+c.session.AccessJwt)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Method: nsid, Code: resp.StatusCode}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(b, se) != nil {
			se.Message = string(b)
		}
		if auth && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", ErrAuth, se)
		}
		return se
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", nsid, err)
	}
	return nil
}
