package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/okeefe/taskdeck/internal/api"
	"github.com/okeefe/taskdeck/internal/config"
	"github.com/okeefe/taskdeck/internal/notify"
	"github.com/okeefe/taskdeck/internal/store"
	"github.com/okeefe/taskdeck/internal/upload"
)

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	Store    *store.Store
	API      *api.Client
	Uploader *upload.Uploader
	Notifier *notify.Notifier
	Log      *slog.Logger
	DataDir  string

	lockFile *flock.Flock
	logFile  *os.File
}

// New creates a new application instance. A nil cfg loads the config
// from the default location (dotenv first, then file, then env).
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		if err := config.LoadDotenv(config.DotenvPath()); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
		loaded, err := config.Load(config.FilePath())
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := config.Path()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:   cfg,
		DataDir:  dataDir,
		Notifier: notify.NewNotifier(),
	}

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		return nil, err
	}

	// Log to a file; the terminal belongs to the TUI.
	if err := app.openLogger(); err != nil {
		app.releaseLock()
		return nil, err
	}

	st, err := store.Open(store.DefaultPath(dataDir))
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	app.Store = st

	app.API = api.New(cfg.API.BaseURL, app.token, app.Log)
	app.Uploader = upload.New(cfg.Upload.CloudName, cfg.Upload.UploadPreset)

	return app, nil
}

// token supplies the current bearer token to the API client.
func (a *App) token() string {
	tok, err := a.Store.Token()
	if err != nil {
		a.Log.Error("read token", "err", err)
		return ""
	}
	return tok
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "taskdeck.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of taskdeck is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// openLogger sets up the slog file logger. TASKDECK_DEBUG=1 drops the
// level to Debug, which includes every API request.
func (a *App) openLogger() error {
	path := filepath.Join(a.DataDir, "taskdeck.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	level := slog.LevelInfo
	if os.Getenv("TASKDECK_DEBUG") == "1" {
		level = slog.LevelDebug
	}

	a.logFile = f
	a.Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return nil
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close settings store: %w", err))
		}
	}

	a.releaseLock()

	if a.logFile != nil {
		a.logFile.Close()
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
