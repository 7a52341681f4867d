package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhle/inbox/internal/feed"
	"github.com/nhle/inbox/internal/identity"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
)

// env holds what every command needs. close releases it.
type env struct {
	cfg      *model.AppConfig
	logger   *slog.Logger
	store    *store.SQLiteStore
	session  *identity.KeyringProvider
	provider identity.Provider
	closers  []func()
}

// setup loads configuration, configures logging into logOut and opens the
// store and keyring.
func setup(flags globalFlags, logOut io.Writer) (*env, error) {
	path := flags.configPath
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logger := newLogger(logOut, level)
	slog.SetDefault(logger)

	s, err := store.NewSQLiteStore(cfg.Store.Path,
		store.WithMaxPerCategory(cfg.Store.MaxPerCategory),
		store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	e := &env{
		cfg:     cfg,
		logger:  logger,
		store:   s,
		closers: []func(){func() { _ = s.Close() }},
	}

	ring, err := identity.OpenKeyring(cfg.Keyring.FileDir)
	if err != nil {
		e.close()
		return nil, err
	}
	e.session = identity.NewKeyringProvider(ring)
	e.provider = e.session
	if flags.identity != "" {
		e.provider = identity.Static(strings.TrimSpace(flags.identity))
	}

	logger.Debug("inbox ready",
		slog.String("version", Version),
		slog.String("config", path),
		slog.String("store", cfg.Store.Path))
	return e, nil
}

func (e *env) aggregator(p identity.Provider) *feed.Aggregator {
	return feed.New(e.store, p,
		feed.WithWeekStart(e.cfg.WeekStartDay()),
		feed.WithLogger(e.logger))
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// openLogFile opens inbox.log next to the config file; the TUI owns the
// terminal while it runs.
func openLogFile(flags globalFlags) (*os.File, error) {
	dir := model.DefaultConfigDir()
	if flags.configPath != "" {
		dir = filepath.Dir(flags.configPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "inbox.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
