package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/avolkov/paperstand/internal/client/api"
	"github.com/avolkov/paperstand/internal/client/config"
	"github.com/avolkov/paperstand/internal/filex"
	"github.com/avolkov/paperstand/internal/logging"
)

// App wires the REPL to the backend API client and the saved session.
type App struct {
	config   *config.Config
	log      logging.Logger
	api      *api.Client
	stateDir string
	reader   *bufio.Reader

	mu       sync.Mutex
	userID   string
	userName string
	listener *api.Listener
	watching bool
}

func NewApp(c *config.Config) (*App, error) {

	stateDir, err := filex.EnsureSubDir(c.StateDir)
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	client := api.NewClient(c.ServerBaseURL, log)

	a := &App{
		config:   c,
		log:      log,
		api:      client,
		stateDir: stateDir,
		reader:   bufio.NewReader(os.Stdin),
	}

	client.SetAuthRequiredHandler(func() {
		_ = clearSession(stateDir)
		a.setUser("", "")
		printlnFn("Session expired, please log in again.")
	})

	if s, err := loadSession(stateDir); err != nil {
		log.Warn(context.Background(), "saved session unreadable", "error", err)
	} else if s != nil {
		client.SetTokens(s.AccessToken, s.RefreshToken)
		a.setUser(s.UserID, displayName(s.Username, s.Email))
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) {
	printlnFn("Paperstand CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID != ""
}

func (a *App) setUser(id, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID = id
	a.userName = name
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s) ", a.userName)
}

func displayName(username, email string) string {
	if username != "" {
		return username
	}
	return email
}
