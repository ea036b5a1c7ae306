// Package api is the single choke point for outbound REST calls: base URL,
// JSON content type, bearer injection, per-request timeout and error
// classification all live here.
package api

import (
	"context"
	"encoding/json"
)

// Client is the transport the application services talk through.
//
// Out parameters receive the full decoded response body; pass nil when the
// body is not needed. All methods honor context cancellation.
//
// Side effect contract: any call answered with HTTP 401 clears the session
// store before returning, so subsequent calls go out unauthenticated
// instead of retrying a stale token.
type Client interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error

	// RefreshToken exchanges the stored refresh credential for a new
	// token pair and persists the pair atomically. The old pair stays in
	// place unless the exchange fully succeeds.
	RefreshToken(ctx context.Context) (TokenPair, error)

	// Ping probes backend reachability.
	Ping(ctx context.Context) error
}

// TokenPair is the credential pair returned by the refresh exchange.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Envelope is the normalized response schema every endpoint answers with.
// Payloads sit under data; shape mismatches are malformed-response errors,
// not something to probe around.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Code    string          `json:"code,omitempty"`
	MsLeft  int64           `json:"msLeft,omitempty"`
}
