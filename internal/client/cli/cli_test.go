package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"coinrush-client/internal/client/api"
	"coinrush-client/internal/client/services"
	"coinrush-client/internal/logging"
	"coinrush-client/internal/models"
)

// stubInputs replaces the interactive input seams with queued answers.
// Text prompts and password prompts consume from separate queues.
func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})

	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		next := texts[0]
		texts = texts[1:]
		return next, nil
	}
	getPassword = func(_ string, _ io.Writer) (string, error) {
		if len(passwords) == 0 {
			return "", io.EOF
		}
		next := passwords[0]
		passwords = passwords[1:]
		return next, nil
	}
}

type fakeAuthService struct {
	state State

	loginIdentifier string
	loginPassword   string
	loginErr        error

	sendData models.RegisterData
	sendErr  error

	verifyEmail string
	verifyCode  string
	verifyErr   error

	resendErr      error
	resendCooldown time.Duration

	resetErr error

	logoutCalled bool

	profile    *models.User
	profileErr error

	updatePatch *models.UserPatch
	updateErr   error
}

// State aliases keep the fake readable.
type State = services.State

func (f *fakeAuthService) State() State          { return f.state }
func (f *fakeAuthService) IsAuthenticated() bool { return f.state.IsAuthenticated() }
func (f *fakeAuthService) ClearError()           {}

func (f *fakeAuthService) Rehydrate(context.Context) error { return nil }

func (f *fakeAuthService) Login(_ context.Context, identifier, password string) error {
	f.loginIdentifier, f.loginPassword = identifier, password
	if f.loginErr != nil {
		return f.loginErr
	}
	f.state = State{
		Status: services.StatusAuthenticated,
		User:   &models.User{ID: "1", Name: "Alice", Username: "alice"},
		Token:  "abc",
	}
	return nil
}

func (f *fakeAuthService) Register(context.Context, models.RegisterData) error { return nil }

func (f *fakeAuthService) SendVerificationCode(_ context.Context, data models.RegisterData) (string, error) {
	f.sendData = data
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return data.Email, nil
}

func (f *fakeAuthService) VerifyAndRegister(_ context.Context, email, code string) error {
	f.verifyEmail, f.verifyCode = email, code
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.state = State{
		Status: services.StatusAuthenticated,
		User:   &models.User{ID: "2", Name: "Bob", Username: "bob"},
		Token:  "xyz",
	}
	return nil
}

func (f *fakeAuthService) ResendVerificationCode(context.Context, string) error { return f.resendErr }
func (f *fakeAuthService) ResendCooldown() time.Duration                        { return f.resendCooldown }

func (f *fakeAuthService) ResetPassword(context.Context, string, string, string) error {
	return f.resetErr
}

func (f *fakeAuthService) Logout(context.Context) error {
	f.logoutCalled = true
	f.state = State{Status: services.StatusUnauthenticated}
	return nil
}
func (f *fakeAuthService) ForceLogout() {}

func (f *fakeAuthService) FetchProfile(context.Context) (*models.User, error) {
	return f.profile, f.profileErr
}

func (f *fakeAuthService) UpdateUser(_ context.Context, patch models.UserPatch) error {
	f.updatePatch = &patch
	return f.updateErr
}

func (f *fakeAuthService) RefreshAuth(context.Context) error { return nil }

type fakeGameService struct {
	points    *models.PointsStatus
	tapStatus *models.TapStatus
	tapResult *models.TapResult
	tapIndex  int
	err       error
}

func (f *fakeGameService) Points(context.Context) (*models.PointsStatus, error) {
	return f.points, f.err
}
func (f *fakeGameService) TapStatus(context.Context) (*models.TapStatus, error) {
	return f.tapStatus, f.err
}
func (f *fakeGameService) TapCoin(_ context.Context, coinIndex int) (*models.TapResult, error) {
	f.tapIndex = coinIndex
	return f.tapResult, f.err
}

func newTestApp(auth services.AuthService, game services.GameService, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		auth:   auth,
		game:   game,
		log:    logging.Discard(),
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    out,
	}, out
}

func TestLogin_PromptsAndAuthenticates(t *testing.T) {
	f := &fakeAuthService{}
	a, out := newTestApp(f, nil, "")
	stubInputs(t, []string{"alice@example.com"}, []string{"hunter22"})

	if err := a.Login(context.Background()); err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if f.loginIdentifier != "alice@example.com" || f.loginPassword != "hunter22" {
		t.Fatalf("credentials not passed through: %q / %q", f.loginIdentifier, f.loginPassword)
	}
	if !strings.Contains(out.String(), "Logged in as Alice") {
		t.Fatalf("missing login confirmation, got: %q", out.String())
	}
}

func TestRegister_StagedFlow(t *testing.T) {
	f := &fakeAuthService{}
	a, out := newTestApp(f, nil, "")
	stubInputs(t,
		[]string{"Bob Example", "bob_7", "bob@example.com", "", "123456"},
		[]string{"hunter22"})

	if err := a.Register(context.Background()); err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if f.sendData.Username != "bob_7" {
		t.Fatalf("staged payload not sent: %+v", f.sendData)
	}
	if f.verifyEmail != "bob@example.com" || f.verifyCode != "123456" {
		t.Fatalf("verification not submitted: %q / %q", f.verifyEmail, f.verifyCode)
	}
	if !strings.Contains(out.String(), "Welcome, Bob!") {
		t.Fatalf("missing welcome, got: %q", out.String())
	}
}

func TestRegister_ResendDuringCooldown(t *testing.T) {
	f := &fakeAuthService{
		resendErr:      services.ErrResendCooldown,
		resendCooldown: 45 * time.Second,
	}
	a, out := newTestApp(f, nil, "")
	// resend hits the cooldown, then the code goes through
	stubInputs(t,
		[]string{"Bob Example", "bob_7", "bob@example.com", "", "resend", "123456"},
		[]string{"hunter22"})

	if err := a.Register(context.Background()); err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if !strings.Contains(out.String(), "wait 45s") {
		t.Fatalf("missing cooldown hint, got: %q", out.String())
	}
}

func TestRegister_EmptyCodeAborts(t *testing.T) {
	f := &fakeAuthService{}
	a, _ := newTestApp(f, nil, "")
	stubInputs(t,
		[]string{"Bob Example", "bob_7", "bob@example.com", "", ""},
		[]string{"hunter22"})

	if err := a.Register(context.Background()); err == nil {
		t.Fatal("want abort error for empty code")
	}
	if f.verifyCode != "" {
		t.Fatalf("verification must not run on abort, got code %q", f.verifyCode)
	}
}

func TestLogout(t *testing.T) {
	f := &fakeAuthService{state: State{
		Status: services.StatusAuthenticated,
		User:   &models.User{ID: "1", Username: "alice"},
		Token:  "abc",
	}}
	a, out := newTestApp(f, nil, "")

	if err := a.Logout(context.Background()); err != nil {
		t.Fatalf("Logout err: %v", err)
	}
	if !f.logoutCalled {
		t.Fatal("Logout not forwarded to auth service")
	}
	if !strings.Contains(out.String(), "Logged out") {
		t.Fatalf("missing logout confirmation, got: %q", out.String())
	}
}

func TestUpdateProfile_SkipsWhenNothingEntered(t *testing.T) {
	f := &fakeAuthService{}
	a, out := newTestApp(f, nil, "")
	stubInputs(t, []string{"", "", ""}, nil)

	if err := a.UpdateProfile(context.Background()); err != nil {
		t.Fatalf("UpdateProfile err: %v", err)
	}
	if f.updatePatch != nil {
		t.Fatalf("empty update must not call the service, got %+v", f.updatePatch)
	}
	if !strings.Contains(out.String(), "Nothing to update") {
		t.Fatalf("missing skip notice, got: %q", out.String())
	}
}

func TestUpdateProfile_BuildsPatch(t *testing.T) {
	f := &fakeAuthService{}
	a, _ := newTestApp(f, nil, "")
	stubInputs(t, []string{"New Name", "", "https://cdn.example.com/me.png"}, nil)

	if err := a.UpdateProfile(context.Background()); err != nil {
		t.Fatalf("UpdateProfile err: %v", err)
	}
	if f.updatePatch == nil || f.updatePatch.Name == nil || *f.updatePatch.Name != "New Name" {
		t.Fatalf("name not patched: %+v", f.updatePatch)
	}
	if f.updatePatch.MobileNumber != nil {
		t.Fatal("skipped field must stay nil")
	}
	if f.updatePatch.ProfileImage == nil || *f.updatePatch.ProfileImage != "https://cdn.example.com/me.png" {
		t.Fatalf("image not patched: %+v", f.updatePatch)
	}
}

func TestTap_PrintsPrize(t *testing.T) {
	g := &fakeGameService{tapResult: &models.TapResult{
		Points:      75,
		TotalPoints: 1275,
		Message:     "You earned 75 points!",
		PrizeEarned: true,
		PrizeName:   "Bronze Coin",
	}}
	a, out := newTestApp(&fakeAuthService{}, g, "")

	if err := a.Tap(context.Background(), 2); err != nil {
		t.Fatalf("Tap err: %v", err)
	}
	if g.tapIndex != 2 {
		t.Fatalf("coin index not forwarded: %d", g.tapIndex)
	}
	for _, want := range []string{"You earned 75 points!", "Total: 1275 points", "Prize unlocked: Bronze Coin"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q in output: %q", want, out.String())
		}
	}
}

func TestTapStatus_ShowsCountdown(t *testing.T) {
	g := &fakeGameService{tapStatus: &models.TapStatus{
		CanTap:            false,
		NextAvailableTime: time.Now().Add(2*time.Hour + 30*time.Second).Format(time.RFC3339),
	}}
	a, out := newTestApp(&fakeAuthService{}, g, "")

	if err := a.TapStatusCmd(context.Background()); err != nil {
		t.Fatalf("TapStatusCmd err: %v", err)
	}
	if !strings.Contains(out.String(), "Next tap in 02:00:") {
		t.Fatalf("missing countdown, got: %q", out.String())
	}
}

// fakePinger implements api.Client for the connectivity watcher.
type fakePinger struct {
	pingErr error
}

func (f *fakePinger) Get(context.Context, string, any) error         { return nil }
func (f *fakePinger) Post(context.Context, string, any, any) error   { return nil }
func (f *fakePinger) Put(context.Context, string, any, any) error    { return nil }
func (f *fakePinger) Delete(context.Context, string, any) error      { return nil }
func (f *fakePinger) RefreshToken(context.Context) (api.TokenPair, error) {
	return api.TokenPair{}, nil
}
func (f *fakePinger) Ping(context.Context) error { return f.pingErr }

func TestPrompt_ShowsUserAndMode(t *testing.T) {
	f := &fakeAuthService{state: State{
		Status: services.StatusAuthenticated,
		User:   &models.User{ID: "1", Username: "alice"},
		Token:  "abc",
	}}
	a, _ := newTestApp(f, nil, "")

	if got := a.prompt(); got != "coinrush (alice)> " {
		t.Fatalf("prompt without mode: %q", got)
	}
	a.setMode(ModeOffline)
	if got := a.prompt(); got != "coinrush (alice offline)> " {
		t.Fatalf("prompt with mode: %q", got)
	}
}

func TestOnlineStatusWatcher_SetsMode(t *testing.T) {
	a, _ := newTestApp(&fakeAuthService{}, nil, "")
	a.api = &fakePinger{pingErr: errors.New("down")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // one probe, then the watcher returns
	a.StartOnlineStatusWatcher(ctx, time.Hour)
	if a.currentMode() != ModeOffline {
		t.Fatalf("want offline, got %q", a.currentMode())
	}

	a.api = &fakePinger{}
	a.StartOnlineStatusWatcher(ctx, time.Hour)
	if a.currentMode() != ModeOnline {
		t.Fatalf("want online, got %q", a.currentMode())
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	a, out := newTestApp(&fakeAuthService{}, nil, "")

	if quit := a.dispatch(context.Background(), "frobnicate", nil); quit {
		t.Fatal("unknown command must not quit the loop")
	}
	if !strings.Contains(out.String(), "Unknown command: frobnicate") {
		t.Fatalf("missing error, got: %q", out.String())
	}
}

func TestDispatch_ExitQuits(t *testing.T) {
	a, _ := newTestApp(&fakeAuthService{}, nil, "")
	if quit := a.dispatch(context.Background(), "exit", nil); !quit {
		t.Fatal("exit must quit the loop")
	}
}

func TestFriendlyError(t *testing.T) {
	if got := friendlyError(errors.New("Invalid credentials")); got != "Invalid credentials" {
		t.Fatalf("server message must pass through, got %q", got)
	}
}
