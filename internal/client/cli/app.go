// Package cli implements the interactive CoinRush console client: a
// small REPL over the auth and game services.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"coinrush-client/internal/client/api"
	"coinrush-client/internal/client/config"
	"coinrush-client/internal/client/services"
	"coinrush-client/internal/client/session"
	"coinrush-client/internal/logging"

	_ "modernc.org/sqlite"
)

// Mode is the backend reachability state shown in the prompt.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

type App struct {
	cfg  config.Config
	auth services.AuthService
	game services.GameService
	api  api.Client
	log  logging.Logger

	reader *bufio.Reader
	out    io.Writer

	modeMu sync.Mutex
	mode   Mode

	// closeStore releases the persistent session store, nil for the
	// in-memory one.
	closeStore func() error
}

// NewApp wires the full client: session store (persistent or in-memory
// per config), API client, auth container and game service.
func NewApp(ctx context.Context, cfg config.Config, log logging.Logger) (*App, error) {
	var (
		store      session.Store
		closeStore func() error
	)
	if cfg.Session.Persistent {
		keys := session.NewKeyringSource(cfg.Session.KeyringService, cfg.Session.KeyringDir)
		secure, err := session.NewSecureStore(ctx, cfg.Session.DatabasePath, keys, log)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		store = secure
		closeStore = secure.Close
	} else {
		store = session.NewMemoryStore()
	}

	apiClient := api.NewHTTPClient(cfg.API.URL, store, log)
	apiClient.SetTimeout(cfg.API.Timeout)

	auth := services.NewAuthService(apiClient, store, log)

	return &App{
		cfg:        cfg,
		auth:       auth,
		game:       services.NewGameService(apiClient),
		api:        apiClient,
		log:        log,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		closeStore: closeStore,
	}, nil
}

func (a *App) Close() error {
	if a.closeStore != nil {
		return a.closeStore()
	}
	return nil
}

// prompt shows who is logged in and the current reachability mode.
func (a *App) prompt() string {
	var parts []string
	if st := a.auth.State(); st.IsAuthenticated() {
		parts = append(parts, st.User.Username)
	}
	if mode := a.currentMode(); mode != "" {
		parts = append(parts, string(mode))
	}
	if len(parts) == 0 {
		return "coinrush> "
	}
	return fmt.Sprintf("coinrush (%s)> ", strings.Join(parts, " "))
}

func (a *App) currentMode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()
	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// StartOnlineStatusWatcher pings the backend on a fixed interval and
// flips the prompt between online and offline. It blocks until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	probe := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.api.Ping(pingCtx); err != nil {
			a.setMode(ModeOffline)
		} else {
			a.setMode(ModeOnline)
		}
	}
	probe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			probe()
		case <-ctx.Done():
			return
		}
	}
}

// Run rehydrates the session and enters the command loop. It returns
// when the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	if err := a.auth.Rehydrate(ctx); err != nil {
		a.log.Warn(ctx, "session rehydration failed", "error", err)
	}
	if st := a.auth.State(); st.IsAuthenticated() {
		fmt.Fprintf(a.out, "Welcome back, %s!\n", st.User.Name)
	}

	fmt.Fprintln(a.out, "CoinRush console (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, 30*time.Second)

	for {
		fmt.Fprint(a.out, a.prompt())
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		if quit := a.dispatch(ctx, parts[0], parts[1:]); quit {
			return
		}
	}
}

// dispatch runs one command. It reports true when the loop should end.
func (a *App) dispatch(ctx context.Context, cmd string, args []string) bool {
	var err error
	switch cmd {
	case "help":
		a.help()
	case "login":
		err = a.Login(ctx)
	case "register":
		err = a.Register(ctx)
	case "reset-password":
		err = a.ResetPassword(ctx)
	case "logout":
		err = a.Logout(ctx)
	case "profile":
		err = a.Profile(ctx)
	case "update-profile":
		err = a.UpdateProfile(ctx)
	case "points":
		err = a.Points(ctx)
	case "tap":
		index := 0
		if len(args) > 0 {
			if index, err = strconv.Atoi(args[0]); err != nil {
				fmt.Fprintln(a.out, "Usage: tap [coin index]")
				return false
			}
		}
		err = a.Tap(ctx, index)
	case "status":
		err = a.TapStatusCmd(ctx)
	case "ping":
		if err = a.api.Ping(ctx); err == nil {
			fmt.Fprintln(a.out, "Server is up")
		}
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return true
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}
	if err != nil {
		fmt.Fprintln(a.out, "Error:", friendlyError(err))
	}
	return false
}

func (a *App) help() {
	if a.auth.IsAuthenticated() {
		fmt.Fprintln(a.out, "Available commands: points, tap [index], status, profile, update-profile, ping, logout, exit")
	} else {
		fmt.Fprintln(a.out, "Available commands: login, register, reset-password, ping, exit")
	}
}

// friendlyError keeps the failure classes the user can act on readable.
func friendlyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrTimeout):
		return "the server took too long to respond, try again"
	case errors.Is(err, api.ErrNetwork):
		return "cannot reach the server, check your connection"
	default:
		return err.Error()
	}
}

// waitHint renders a cooldown as a rounded human hint.
func waitHint(d time.Duration) string {
	return d.Round(time.Second).String()
}
