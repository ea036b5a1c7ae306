package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pressly/goose/v3"

	"coinrush-client/internal/client/session/migrations"
	"coinrush-client/internal/cryptox"
	"coinrush-client/internal/dbx"
	"coinrush-client/internal/logging"
	"coinrush-client/internal/models"
)

// Item keys inside session_items.
const (
	itemToken        = "token"
	itemRefreshToken = "refresh_token"
	itemUser         = "user"
)

// SecureStore is the durable session store. Values are sealed with
// AES-256-GCM before they reach the SQLite file; the data key is derived
// per call from the keyring-held secret and a per-database salt, and the
// secret service handle is released before the call returns.
type SecureStore struct {
	db   *sql.DB
	keys KeySource
	log  logging.Logger
}

// NewSecureStore opens (creating if needed) the store database at dsn and
// applies pending migrations.
func NewSecureStore(ctx context.Context, dsn string, keys KeySource, log logging.Logger) (*SecureStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}

	return &SecureStore{db: db, keys: keys, log: log}, nil
}

// Close releases the underlying database handle.
func (s *SecureStore) Close() error {
	return s.db.Close()
}

func (s *SecureStore) Token(ctx context.Context) (string, error) {
	v := s.getDegraded(ctx, itemToken)
	return string(v), nil
}

func (s *SecureStore) SetToken(ctx context.Context, token string) error {
	return s.set(ctx, s.db, itemToken, []byte(token))
}

func (s *SecureStore) RefreshToken(ctx context.Context) (string, error) {
	v := s.getDegraded(ctx, itemRefreshToken)
	return string(v), nil
}

func (s *SecureStore) SetRefreshToken(ctx context.Context, token string) error {
	return s.set(ctx, s.db, itemRefreshToken, []byte(token))
}

func (s *SecureStore) User(ctx context.Context) (*models.User, error) {
	v := s.getDegraded(ctx, itemUser)
	if v == nil {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal(v, &u); err != nil {
		s.log.Warn(ctx, "cached user snapshot is unreadable, treating as absent", "error", err)
		return nil, nil
	}
	return &u, nil
}

func (s *SecureStore) SetUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return s.delete(ctx, s.db, itemUser)
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.set(ctx, s.db, itemUser, data)
}

// SetSession writes token, refresh token and user in a single transaction,
// so a crash mid-way can never leave a token without its paired user.
func (s *SecureStore) SetSession(ctx context.Context, sess Session) error {
	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.Querier) error {
		if err := s.set(ctx, tx, itemToken, []byte(sess.Token)); err != nil {
			return err
		}
		if err := s.set(ctx, tx, itemRefreshToken, []byte(sess.RefreshToken)); err != nil {
			return err
		}
		if sess.User == nil {
			return s.delete(ctx, tx, itemUser)
		}
		data, err := json.Marshal(sess.User)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		return s.set(ctx, tx, itemUser, data)
	})
}

// SetTokenPair swaps the credential pair in one transaction, keeping the
// cached user as is.
func (s *SecureStore) SetTokenPair(ctx context.Context, token, refreshToken string) error {
	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.Querier) error {
		if err := s.set(ctx, tx, itemToken, []byte(token)); err != nil {
			return err
		}
		return s.set(ctx, tx, itemRefreshToken, []byte(refreshToken))
	})
}

func (s *SecureStore) ClearAuth(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_items WHERE key IN (?, ?, ?)`,
		itemToken, itemRefreshToken, itemUser)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// getDegraded reads and decrypts one item. Absence and I/O/decrypt
// failures both come back as nil so callers stay simple; failures are
// logged rather than surfaced.
func (s *SecureStore) getDegraded(ctx context.Context, key string) []byte {
	var value, nonce []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value, nonce FROM session_items WHERE key = ?`, key).Scan(&value, &nonce)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		s.log.Warn(ctx, "session read failed, treating as absent", "key", key, "error", err)
		return nil
	}

	dataKey, err := s.dataKey(ctx, s.db, false)
	if err != nil {
		s.log.Warn(ctx, "data key unavailable, treating session as absent", "error", err)
		return nil
	}
	defer cryptox.Wipe(dataKey)

	plaintext, err := cryptox.Open(value, nonce, dataKey)
	if err != nil {
		s.log.Warn(ctx, "session decrypt failed, treating as absent", "key", key, "error", err)
		return nil
	}
	return plaintext
}

func (s *SecureStore) set(ctx context.Context, q dbx.Querier, key string, plaintext []byte) error {
	dataKey, err := s.dataKey(ctx, q, true)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(dataKey)

	ciphertext, nonce, err := cryptox.Seal(plaintext, dataKey)
	if err != nil {
		return fmt.Errorf("seal session item %q: %w", key, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO session_items (key, value, nonce) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, nonce = excluded.nonce
	`, key, ciphertext, nonce)
	if err != nil {
		return fmt.Errorf("write session item %q: %w", key, err)
	}
	return nil
}

func (s *SecureStore) delete(ctx context.Context, q dbx.Querier, key string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM session_items WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete session item %q: %w", key, err)
	}
	return nil
}

// dataKey derives the AES key from the keyring secret and the per-database
// salt. When create is false a missing salt means the store has never been
// written to, which reads treat as absent.
func (s *SecureStore) dataKey(ctx context.Context, q dbx.Querier, create bool) ([]byte, error) {
	var salt []byte
	err := q.QueryRowContext(ctx, `SELECT salt FROM keymeta WHERE id = 1`).Scan(&salt)
	if err == sql.ErrNoRows {
		if !create {
			return nil, fmt.Errorf("session store was never initialized")
		}
		salt = cryptox.GenerateRandBytes(16)
		if _, err := q.ExecContext(ctx, `INSERT INTO keymeta (id, salt) VALUES (1, ?)`, salt); err != nil {
			return nil, fmt.Errorf("write key salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read key salt: %w", err)
	}

	secret, err := s.keys.Secret()
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(secret)

	return cryptox.DeriveDataKey(secret, salt), nil
}
