// Package services contains the application services of the CoinRush
// client. This file holds the auth state container: the session state
// machine behind login, registration (direct and code-verified), logout,
// profile updates and token refresh.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"coinrush-client/internal/client/api"
	"coinrush-client/internal/client/session"
	"coinrush-client/internal/client/validation"
	"coinrush-client/internal/logging"
	"coinrush-client/internal/models"
)

// Status is the auth machine's position: unauthenticated (initial),
// authenticating (transient, while a network call is in flight) or
// authenticated (until logout or a forced 401 clear).
type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticating  Status = "authenticating"
	StatusAuthenticated   Status = "authenticated"
)

// State is a snapshot of the auth machine.
type State struct {
	Status       Status
	User         *models.User
	Token        string
	RefreshToken string

	// Err is the last human-readable failure message, cleared on the
	// next successful operation or via ClearError.
	Err string
}

// IsAuthenticated is true iff both a user and a token are present.
// A token without a user, or a user without a token, never counts.
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// ErrResendCooldown rejects a resend attempt made before the server's
// cooldown window elapsed. No request is sent in that case.
var ErrResendCooldown = errors.New("verification code was requested too recently")

// defaultResendCooldown applies when the server rejects a resend without
// saying how long to wait.
const defaultResendCooldown = time.Minute

// refreshWindow is how close to expiry a rehydrated token may be before
// the container tries a proactive refresh.
const refreshWindow = 2 * time.Minute

// AuthService is the auth state container.
//
// All operations are synchronous; session material is fully persisted
// before success is reported. Overlapping calls are not serialized
// beyond basic state consistency: if two race, the last store write wins.
type AuthService interface {
	// State returns a copy of the current machine state.
	State() State
	IsAuthenticated() bool
	ClearError()

	// Rehydrate rebuilds state from the session store on startup. The
	// machine ends up authenticated only when both token and user were
	// found; anything less rehydrates to unauthenticated.
	Rehydrate(ctx context.Context) error

	Login(ctx context.Context, identifier, password string) error
	Register(ctx context.Context, data models.RegisterData) error

	// Staged registration: SendVerificationCode stages the payload and asks
	// the server for a one-time code; only VerifyAndRegister writes session
	// material, and only on success.
	SendVerificationCode(ctx context.Context, data models.RegisterData) (string, error)
	VerifyAndRegister(ctx context.Context, email, code string) error
	ResendVerificationCode(ctx context.Context, email string) error
	// ResendCooldown reports how long resending stays refused, zero when
	// resending is allowed again.
	ResendCooldown() time.Duration

	ResetPassword(ctx context.Context, email, code, newPassword string) error

	Logout(ctx context.Context) error
	// ForceLogout is the system-initiated variant, wired to the API
	// client's 401 hook. Explicit and forced logout share one code path.
	ForceLogout()

	FetchProfile(ctx context.Context) (*models.User, error)
	// UpdateUser merges a partial update into the current snapshot and
	// persists it synchronously. A no-op when unauthenticated.
	UpdateUser(ctx context.Context, patch models.UserPatch) error

	RefreshAuth(ctx context.Context) error
}

type authService struct {
	client api.Client
	store  session.Store
	log    logging.Logger

	mu    sync.Mutex
	state State

	// staged registration payload; memory only, dropped on success,
	// failure or process exit
	staged      *models.RegisterData
	stagedEmail string

	resendNotBefore time.Time

	now func() time.Time // test seam
}

// NewAuthService builds the container and registers its forced-logout
// path on the API client's unauthorized hook.
func NewAuthService(client api.Client, store session.Store, log logging.Logger) AuthService {
	a := &authService{
		client: client,
		store:  store,
		log:    log.With("component", "auth"),
		state:  State{Status: StatusUnauthenticated},
		now:    time.Now,
	}
	if hc, ok := client.(interface{ OnUnauthorized(func()) }); ok {
		hc.OnUnauthorized(a.ForceLogout)
	}
	return a
}

// authPayload is the normalized success payload of every session-issuing
// endpoint. Anything short of a complete payload is a malformed response.
type authPayload struct {
	User         models.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *authPayload `json:"data"`
}

func (r *authResponse) complete() bool {
	return r.Success && r.Data != nil && r.Data.Token != "" && r.Data.User.ID != ""
}

func (a *authService) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *authService) snapshotLocked() State {
	s := a.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (a *authService) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.IsAuthenticated()
}

func (a *authService) ClearError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Err = ""
}

func (a *authService) Rehydrate(ctx context.Context) error {
	token, _ := a.store.Token(ctx)
	refreshToken, _ := a.store.RefreshToken(ctx)
	user, _ := a.store.User(ctx)

	if token == "" || user == nil {
		// half a session is no session; leave whatever is stored in
		// place and start unauthenticated
		a.setUnauthenticated("")
		return nil
	}

	a.mu.Lock()
	a.state = State{
		Status:       StatusAuthenticated,
		User:         user,
		Token:        token,
		RefreshToken: refreshToken,
	}
	a.mu.Unlock()

	if refreshToken != "" && session.TokenExpiresWithin(token, refreshWindow) {
		if err := a.RefreshAuth(ctx); err != nil {
			a.log.Warn(ctx, "proactive token refresh failed on startup", "error", err)
			return err
		}
	}
	return nil
}

func (a *authService) Login(ctx context.Context, identifier, password string) error {
	if err := validation.AsError(validation.Login(identifier, password)); err != nil {
		return err
	}

	a.setStatus(StatusAuthenticating)

	var resp authResponse
	err := a.client.Post(ctx, "/auth/login", map[string]string{
		"login":    identifier,
		"password": password,
	}, &resp)
	if err != nil {
		return a.failAuth(ctx, "login", err)
	}
	if !resp.complete() {
		return a.failAuth(ctx, "login", a.incomplete(resp.Message, "Login failed"))
	}

	return a.adoptSession(ctx, *resp.Data)
}

func (a *authService) Register(ctx context.Context, data models.RegisterData) error {
	if err := validation.AsError(validation.Registration(data)); err != nil {
		return err
	}

	a.setStatus(StatusAuthenticating)

	var resp authResponse
	err := a.client.Post(ctx, "/auth/register", data, &resp)
	if err != nil {
		return a.failAuth(ctx, "register", err)
	}
	if !resp.complete() {
		return a.failAuth(ctx, "register", a.incomplete(resp.Message, "Registration failed"))
	}

	return a.adoptSession(ctx, *resp.Data)
}

// SendVerificationCode stages the registration payload and requests a
// one-time code. No session material is written at this step.
func (a *authService) SendVerificationCode(ctx context.Context, data models.RegisterData) (string, error) {
	if err := validation.AsError(validation.Registration(data)); err != nil {
		return "", err
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    *struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := a.client.Post(ctx, "/auth/send-verification", data, &resp); err != nil {
		a.setError(err.Error())
		return "", err
	}
	if !resp.Success {
		err := a.incomplete(resp.Message, "Failed to send verification code")
		a.setError(err.Error())
		return "", err
	}

	email := data.Email
	if resp.Data != nil && resp.Data.Email != "" {
		email = resp.Data.Email
	}

	a.mu.Lock()
	staged := data
	a.staged = &staged
	a.stagedEmail = email
	a.mu.Unlock()

	return email, nil
}

// VerifyAndRegister confirms the one-time code. This is the only step of
// the staged flow that writes session material, and only on success.
func (a *authService) VerifyAndRegister(ctx context.Context, email, code string) error {
	a.mu.Lock()
	staged := a.staged
	a.mu.Unlock()

	body := map[string]any{"email": email, "code": code}
	if staged != nil {
		body = map[string]any{
			"name":         staged.Name,
			"username":     staged.Username,
			"email":        email,
			"password":     staged.Password,
			"mobileNumber": staged.MobileNumber,
			"code":         code,
		}
	}

	a.setStatus(StatusAuthenticating)

	var resp authResponse
	if err := a.client.Post(ctx, "/auth/verify-and-register", body, &resp); err != nil {
		return a.failAuth(ctx, "verify", err)
	}
	if !resp.complete() {
		return a.failAuth(ctx, "verify", a.incomplete(resp.Message, "Verification failed"))
	}

	if err := a.adoptSession(ctx, *resp.Data); err != nil {
		return err
	}

	a.mu.Lock()
	a.staged = nil
	a.stagedEmail = ""
	a.mu.Unlock()
	return nil
}

// ResendVerificationCode asks the server to send a fresh code. Staged
// registration data stays untouched either way. The server's cooldown is
// honored locally: resending within the window is refused without a call.
func (a *authService) ResendVerificationCode(ctx context.Context, email string) error {
	if left := a.ResendCooldown(); left > 0 {
		return fmt.Errorf("%w (%s left)", ErrResendCooldown, left.Round(time.Second))
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		MsLeft  int64  `json:"msLeft"`
	}
	err := a.client.Post(ctx, "/auth/resend-otp", map[string]string{"email": email}, &resp)
	if err != nil {
		if ms := api.CooldownMs(err); ms > 0 {
			a.startResendCooldown(time.Duration(ms) * time.Millisecond)
		}
		a.setError(err.Error())
		return err
	}

	cooldown := defaultResendCooldown
	if resp.MsLeft > 0 {
		cooldown = time.Duration(resp.MsLeft) * time.Millisecond
	}
	a.startResendCooldown(cooldown)
	return nil
}

func (a *authService) ResendCooldown() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	left := a.resendNotBefore.Sub(a.now())
	if left < 0 {
		return 0
	}
	return left
}

func (a *authService) startResendCooldown(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resendNotBefore = a.now().Add(d)
}

// ResetPassword completes the code-verified password reset. It never
// touches session material: the user logs in with the new password.
func (a *authService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := validation.AsError(validation.Struct(struct {
		Password string `json:"password" validate:"required,min=6,max=50"`
	}{newPassword})); err != nil {
		return err
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	err := a.client.Post(ctx, "/auth/verify-reset-password", map[string]string{
		"email":       email,
		"code":        code,
		"newPassword": newPassword,
	}, &resp)
	if err != nil {
		a.setError(err.Error())
		return err
	}
	if !resp.Success {
		err := a.incomplete(resp.Message, "Password reset failed")
		a.setError(err.Error())
		return err
	}
	return nil
}

// Logout notifies the server best-effort, then unconditionally clears
// local session material and resets the machine.
func (a *authService) Logout(ctx context.Context) error {
	if err := a.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		a.log.Warn(ctx, "server logout failed, clearing local session anyway", "error", err)
	}
	return a.clearLocal(ctx)
}

// ForceLogout handles a 401 observed anywhere in the client. The API
// client has already cleared the store by the time this runs; clearing
// again is harmless and keeps one code path for both logout kinds.
func (a *authService) ForceLogout() {
	_ = a.clearLocal(context.Background())
}

func (a *authService) clearLocal(ctx context.Context) error {
	err := a.store.ClearAuth(ctx)
	if err != nil {
		a.log.Error(ctx, "clearing session store failed", "error", err)
	}
	a.setUnauthenticated("")
	return err
}

func (a *authService) FetchProfile(ctx context.Context) (*models.User, error) {
	var resp struct {
		Success bool `json:"success"`
		Data    *struct {
			User *models.User `json:"user"`
		} `json:"data"`
	}
	if err := a.client.Get(ctx, "/auth/profile", &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil || resp.Data.User == nil {
		return nil, fmt.Errorf("profile: %w", api.ErrMalformedResponse)
	}

	user := resp.Data.User
	if err := a.store.SetUser(ctx, user); err != nil {
		return nil, fmt.Errorf("persist profile: %w", err)
	}

	a.mu.Lock()
	if a.state.IsAuthenticated() {
		u := *user
		a.state.User = &u
	}
	a.mu.Unlock()
	return user, nil
}

func (a *authService) UpdateUser(ctx context.Context, patch models.UserPatch) error {
	a.mu.Lock()
	if !a.state.IsAuthenticated() {
		a.mu.Unlock()
		return nil // no session to update
	}
	current := *a.state.User
	a.mu.Unlock()

	var resp struct {
		Success bool `json:"success"`
		Data    *struct {
			User *models.User `json:"user"`
		} `json:"data"`
	}
	if err := a.client.Put(ctx, "/auth/update-profile", patch, &resp); err != nil {
		a.setError(err.Error())
		return err
	}

	merged := current.Merge(patch)
	if resp.Success && resp.Data != nil && resp.Data.User != nil {
		merged = *resp.Data.User
	}

	// persisted before the new snapshot is visible, so storage and
	// memory cannot disagree after a crash
	if err := a.store.SetUser(ctx, &merged); err != nil {
		a.setError(err.Error())
		return fmt.Errorf("persist profile update: %w", err)
	}

	a.mu.Lock()
	if a.state.IsAuthenticated() {
		a.state.User = &merged
		a.state.Err = ""
	}
	a.mu.Unlock()
	return nil
}

// RefreshAuth runs the explicit refresh exchange and adopts the new pair.
// Any failure ends the session: a client that cannot refresh is treated
// like one that got a 401.
func (a *authService) RefreshAuth(ctx context.Context) error {
	pair, err := a.client.RefreshToken(ctx)
	if err != nil {
		_ = a.clearLocal(ctx)
		return err
	}

	a.mu.Lock()
	a.state.Token = pair.Token
	a.state.RefreshToken = pair.RefreshToken
	a.mu.Unlock()
	return nil
}

// adoptSession persists the full session first and flips the machine to
// authenticated only after the write landed. On a store failure nothing
// partial remains and the machine reports unauthenticated.
func (a *authService) adoptSession(ctx context.Context, p authPayload) error {
	user := p.User
	err := a.store.SetSession(ctx, session.Session{
		Token:        p.Token,
		RefreshToken: p.RefreshToken,
		User:         &user,
	})
	if err != nil {
		if clearErr := a.store.ClearAuth(ctx); clearErr != nil {
			a.log.Error(ctx, "session rollback failed", "error", clearErr)
		}
		a.setUnauthenticated("Could not save session")
		return fmt.Errorf("persist session: %w", err)
	}

	a.mu.Lock()
	a.state = State{
		Status:       StatusAuthenticated,
		User:         &user,
		Token:        p.Token,
		RefreshToken: p.RefreshToken,
	}
	a.mu.Unlock()
	return nil
}

func (a *authService) failAuth(ctx context.Context, op string, err error) error {
	a.log.Warn(ctx, op+" failed", "error", err)
	a.setUnauthenticated(err.Error())
	return err
}

func (a *authService) incomplete(serverMessage, fallback string) error {
	if serverMessage != "" {
		return fmt.Errorf("%s: %w", serverMessage, api.ErrMalformedResponse)
	}
	return fmt.Errorf("%s: %w", fallback, api.ErrMalformedResponse)
}

func (a *authService) setStatus(s Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Status = s
	a.state.Err = ""
}

func (a *authService) setUnauthenticated(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = State{Status: StatusUnauthenticated, Err: msg}
}

func (a *authService) setError(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Err = msg
}
