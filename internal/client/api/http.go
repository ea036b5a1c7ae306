package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"coinrush-client/internal/client/session"
	"coinrush-client/internal/logging"
)

// DefaultTimeout is the per-request window after which an in-flight call is
// cancelled and surfaced as ErrTimeout. Each call's timeout is independent;
// cancelling one never touches sibling calls.
const DefaultTimeout = 10 * time.Second

// HTTPClient is the concrete Client over net/http.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	store   session.Store
	log     logging.Logger

	// onUnauthorized is invoked after a 401 has cleared the store, so the
	// auth container can route the event through its forced-logout path.
	onUnauthorized func()
}

// NewHTTPClient builds a client for the given base URL. The session store
// supplies the bearer token and absorbs the 401 clear side effect.
func NewHTTPClient(baseURL string, store session.Store, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		store:   store,
		log:     log,
	}
}

// SetTimeout overrides the per-request timeout.
func (c *HTTPClient) SetTimeout(d time.Duration) {
	c.http.Timeout = d
}

// OnUnauthorized registers the forced-logout hook. At most one hook is
// kept; the auth container registers itself at construction.
func (c *HTTPClient) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	return c.request(ctx, http.MethodGet, path, nil, out)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPost, path, body, out)
}

func (c *HTTPClient) Put(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPut, path, body, out)
}

func (c *HTTPClient) Delete(ctx context.Context, path string, out any) error {
	return c.request(ctx, http.MethodDelete, path, nil, out)
}

// Ping probes the backend health endpoint without touching auth state.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "/health", nil, nil)
}

// RefreshToken performs the explicit refresh exchange. The stored pair is
// replaced only after the server returned a complete new pair, in a single
// atomic store write, so token and refresh token can never drift apart.
// A 401 here goes through the same clear-and-force-logout path as any
// other call: an invalid refresh credential ends the session.
func (c *HTTPClient) RefreshToken(ctx context.Context) (TokenPair, error) {
	refreshToken, _ := c.store.RefreshToken(ctx)
	if refreshToken == "" {
		return TokenPair{}, ErrNoRefreshToken
	}

	var resp struct {
		Envelope
		Data TokenPair `json:"data"`
	}
	err := c.Post(ctx, "/auth/refresh-token", map[string]string{"refreshToken": refreshToken}, &resp)
	if err != nil {
		return TokenPair{}, err
	}
	if !resp.Success || resp.Data.Token == "" || resp.Data.RefreshToken == "" {
		return TokenPair{}, fmt.Errorf("refresh exchange: %w", ErrMalformedResponse)
	}

	if err := c.store.SetTokenPair(ctx, resp.Data.Token, resp.Data.RefreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("persist refreshed tokens: %w", err)
	}
	return resp.Data, nil
}

func (c *HTTPClient) request(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token, _ := c.store.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, ErrNetwork)
	}

	// 401 clears the session unconditionally, whatever the body looks like
	if resp.StatusCode == http.StatusUnauthorized {
		c.forceLogout(ctx)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// still try to pull a server-supplied message out of the body
		apiErr := &Error{Status: resp.StatusCode, Message: "Request failed"}
		var env Envelope
		if json.Unmarshal(raw, &env) == nil {
			if env.Message != "" {
				apiErr.Message = env.Message
			}
			apiErr.Code = env.Code
			apiErr.MsLeft = env.MsLeft
		}
		return apiErr
	}

	if ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); ct != "application/json" {
		return fmt.Errorf("%s %s: %w", method, path, ErrMalformedResponse)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s %s: %w", method, path, ErrMalformedResponse)
		}
	}
	return nil
}

// forceLogout clears all stored session material so subsequent calls go
// out unauthenticated, then notifies the container. One 401 means global
// logout, not a local failure.
func (c *HTTPClient) forceLogout(ctx context.Context) {
	if err := c.store.ClearAuth(ctx); err != nil {
		c.log.Error(ctx, "clearing session after 401 failed", "error", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *HTTPClient) classifyTransport(ctx context.Context, method, path string, err error) error {
	var uerr *url.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &uerr) && uerr.Timeout())
	if timedOut {
		c.log.Warn(ctx, "request timed out", "method", method, "path", path)
		return fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
	}
	c.log.Warn(ctx, "request failed", "method", method, "path", path, "error", err)
	return fmt.Errorf("%s %s: %w", method, path, ErrNetwork)
}
