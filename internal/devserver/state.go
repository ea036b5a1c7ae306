package devserver

import (
	"strconv"
	"sync"
	"time"

	"coinrush-client/internal/models"
)

// account is a registered user plus its password hash.
type account struct {
	user     models.User
	passSalt []byte
	passHash []byte
}

// pendingSignup is a staged registration waiting for its one-time code.
type pendingSignup struct {
	data     models.RegisterData
	code     string
	lastSent time.Time
}

// playerState is the per-user game progress.
type playerState struct {
	totalPoints     int64
	lifetimePoints  int64
	consecutiveDays int
	lastTap         time.Time
}

// state is the whole in-memory backend. Everything is lost on restart,
// which is the point of a dev server.
type state struct {
	mu       sync.Mutex
	accounts map[string]*account       // by user ID
	pending  map[string]*pendingSignup // by email
	resets   map[string]string         // email -> reset code
	refresh  map[string]string         // refresh token -> user ID
	players  map[string]*playerState   // by user ID
	nextID   int
}

func newState() *state {
	return &state{
		accounts: map[string]*account{},
		pending:  map[string]*pendingSignup{},
		resets:   map[string]string{},
		refresh:  map[string]string{},
		players:  map[string]*playerState{},
		nextID:   1,
	}
}

// allocID hands out sequential string IDs. Callers hold s.mu.
func (s *state) allocID() string {
	id := strconv.Itoa(s.nextID)
	s.nextID++
	return id
}

// findByLogin matches an account by email or username. Callers hold s.mu.
func (s *state) findByLogin(login string) *account {
	for _, acc := range s.accounts {
		if acc.user.Email == login || acc.user.Username == login {
			return acc
		}
	}
	return nil
}

// taken reports whether an email or username is already registered.
// Callers hold s.mu.
func (s *state) taken(email, username string) bool {
	for _, acc := range s.accounts {
		if acc.user.Email == email || acc.user.Username == username {
			return true
		}
	}
	return false
}

// player returns the game progress for a user, creating it on first use.
// Callers hold s.mu.
func (s *state) player(userID string) *playerState {
	p, ok := s.players[userID]
	if !ok {
		p = &playerState{}
		s.players[userID] = p
	}
	return p
}

// dropRefreshTokens invalidates every refresh token of a user. Callers
// hold s.mu.
func (s *state) dropRefreshTokens(userID string) {
	for tok, uid := range s.refresh {
		if uid == userID {
			delete(s.refresh, tok)
		}
	}
}
