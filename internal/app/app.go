package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"mikrodesk/internal/api"
	"mikrodesk/internal/config"
	"mikrodesk/internal/logger"
	"mikrodesk/internal/paths"
	"mikrodesk/internal/query"
	"mikrodesk/internal/session"
	"mikrodesk/internal/storage"
	"mikrodesk/internal/storage/sqlite"
)

// Options override where the application keeps its state.
type Options struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	// LogToFile sends the log to the cache dir instead of stderr. The TUI
	// sets it so log lines never land on the alt screen.
	LogToFile bool
}

// App represents the application context
type App struct {
	Config  *config.Config
	Storage storage.Storage
	Client  *api.Client
	Session *session.Session
	Cache   *query.Cache
	Log     *logrus.Logger

	logFile io.Closer
}

// New creates a new application instance
func New(opts Options) (*App, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		p, err := paths.ConfigFile()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = cfgPath
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	a := &App{Config: cfg}
	if opts.LogToFile {
		logPath, err := paths.LogFile()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log path: %w", err)
		}
		log, f, err := logger.ToFile(level, logPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.Log, a.logFile = log, f
	} else {
		a.Log = logger.New(level, os.Stderr)
	}

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath, err = paths.DBFile()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
	}
	store, err := sqlite.New(dbPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = store

	a.Client = api.New(api.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	}, a.Log.WithField("component", "api"))

	a.Session = session.New(store, a.Client, a.Log.WithField("component", "session"))
	if err := a.Session.Load(context.Background()); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	a.Cache = query.NewCache(a.Session, a.Log.WithField("component", "query"))
	registerQueries(a.Cache, a.Client, cfg.Poll)

	// Entries belong to one connection id; drop them when it changes.
	a.Session.OnChange(func(string) { a.Cache.Reset() })

	return a, nil
}

// NewPoller builds a background poller over the app cache using the
// configured stagger and backoff.
func (a *App) NewPoller(onError func(resource string, err error)) (*query.Poller, error) {
	return query.NewPoller(a.Cache, query.PollerConfig{
		Stagger:    a.Config.Poll.Stagger,
		MaxBackoff: a.Config.Poll.MaxBackoff,
		OnError:    onError,
	}, a.Log.WithField("component", "poller"))
}

// Close closes the application and releases resources
func (a *App) Close() error {
	var err error
	if a.Storage != nil {
		err = a.Storage.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}
