package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure classes callers branch on with errors.Is.
var (
	// ErrTimeout: the server did not answer within the configured window.
	ErrTimeout = errors.New("request timed out")

	// ErrNetwork: the server could not be reached at all.
	ErrNetwork = errors.New("cannot connect to server")

	// ErrMalformedResponse: the server answered with something other than
	// the expected JSON shape.
	ErrMalformedResponse = errors.New("invalid response format")

	// ErrUnauthorized: the session was rejected. By the time a caller
	// sees this the local session material has already been cleared.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoRefreshToken: a refresh exchange was requested with no stored
	// refresh credential.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// Error is a non-2xx response carrying whatever the server said about it.
type Error struct {
	Status  int
	Message string
	Code    string

	// MsLeft is the server-reported cooldown remainder on 429 responses.
	MsLeft int64
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// CooldownMs extracts the server-reported cooldown from a 429 error,
// or 0 when err is not a cooldown rejection.
func CooldownMs(err error) int64 {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
		return apiErr.MsLeft
	}
	return 0
}
