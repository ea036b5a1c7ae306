// Package session owns the client's session material: the bearer token,
// the refresh token and the cached user snapshot.
//
// Two mutually exclusive backings exist, selected by configuration:
// a volatile in-process store (session lost on restart) and a durable
// store encrypted at rest (session survives restart). Both satisfy Store.
package session

import (
	"context"

	"coinrush-client/internal/models"
)

// Session bundles the credential pair with the cached user snapshot so the
// three can be written atomically.
type Session struct {
	Token        string
	RefreshToken string
	User         *models.User
}

// Store holds session material.
//
// Read methods never fail on absence: a missing value is ("", nil) or
// (nil, nil). Underlying I/O failures on reads also degrade to absent,
// so callers stay simple; write failures are propagated. ClearAuth is
// idempotent: clearing an already empty store is a no-op.
type Store interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error

	RefreshToken(ctx context.Context) (string, error)
	SetRefreshToken(ctx context.Context, token string) error

	User(ctx context.Context) (*models.User, error)
	SetUser(ctx context.Context, u *models.User) error

	// SetSession replaces token, refresh token and user in one atomic
	// write. Either all three land or none of them do.
	SetSession(ctx context.Context, s Session) error

	// SetTokenPair replaces the credential pair atomically, leaving the
	// cached user untouched. The store can never end up holding a
	// refresh token newer than its paired token or vice versa.
	SetTokenPair(ctx context.Context, token, refreshToken string) error

	// ClearAuth removes all session material.
	ClearAuth(ctx context.Context) error
}
