package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"coinrush-client/internal/models"
)

func TestMemoryStore_SetGetClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tok, err := s.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, tok, "fresh store holds no token")

	require.NoError(t, s.SetToken(ctx, "abc"))
	require.NoError(t, s.SetRefreshToken(ctx, "def"))
	require.NoError(t, s.SetUser(ctx, &models.User{ID: "1", Email: "a@b.c"}))

	tok, err = s.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	rt, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "def", rt)

	u, err := s.User(ctx)
	require.NoError(t, err)
	require.Equal(t, "1", u.ID)

	require.NoError(t, s.ClearAuth(ctx))

	tok, err = s.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, tok)
	u, err = s.User(ctx)
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.SetToken(ctx, "abc"))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.ClearAuth(ctx))
		tok, err := s.Token(ctx)
		require.NoError(t, err)
		require.Empty(t, tok)
	}
}

func TestMemoryStore_SetSessionReplacesEverything(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.SetSession(ctx, Session{
		Token:        "old",
		RefreshToken: "old-r",
		User:         &models.User{ID: "1"},
	}))

	require.NoError(t, s.SetSession(ctx, Session{Token: "new", RefreshToken: "new-r"}))

	tok, _ := s.Token(ctx)
	require.Equal(t, "new", tok)
	u, _ := s.User(ctx)
	require.Nil(t, u, "SetSession without a user must drop the cached one")
}

func TestMemoryStore_UserIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	orig := &models.User{ID: "1", Name: "Alice"}
	require.NoError(t, s.SetUser(ctx, orig))

	orig.Name = "Mallory"

	u, err := s.User(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alice", u.Name, "store must not alias caller memory")
}
