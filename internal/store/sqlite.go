package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/inbox/internal/model"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db             *sqlx.DB
	maxPerCategory int
	logger         *slog.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithMaxPerCategory caps each category list at n records (0 = unbounded).
func WithMaxPerCategory(n int) Option {
	return func(s *SQLiteStore) { s.maxPerCategory = n }
}

// WithLogger sets the logger used for recoverable storage problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: an in-memory database is per-connection, and the
	// inbox never needs parallel writers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Get returns the raw value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return get(ctx, s.db, key)
}

func get(ctx context.Context, q queryer, key string) ([]byte, bool, error) {
	var value string
	err := q.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting key %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put stores value under key, replacing any previous value.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	return put(ctx, s.db, key, value)
}

func put(ctx context.Context, q queryer, key string, value []byte) error {
	_, err := q.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys starting with prefix, sorted.
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys,
		"SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key",
		utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing keys with prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// LoadRaw returns the stored notification list for identity and category.
func (s *SQLiteStore) LoadRaw(
	ctx context.Context,
	identity string,
	category model.Category,
) ([]model.Notification, error) {
	key := Key(identity, category)
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return []model.Notification{}, nil
	}
	return decodeList(key, category, raw)
}

// Append adds n to the end of its category list for identity, trimming the
// oldest records beyond the configured cap.
func (s *SQLiteStore) Append(
	ctx context.Context,
	identity string,
	n model.Notification,
) error {
	if !n.Category.Valid() {
		return fmt.Errorf("appending notification %s: %w: %q", n.ID, model.ErrUnknownCategory, n.Category)
	}
	key := Key(identity, n.Category)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	raw, found, err := get(ctx, tx, key)
	if err != nil {
		return err
	}

	list := []model.Notification{}
	if found {
		list, err = decodeList(key, n.Category, raw)
		if err != nil {
			s.logger.Warn("replacing malformed notification list",
				slog.String("key", key),
				slog.String("error", err.Error()))
			list = []model.Notification{}
		}
	}

	list = append(list, n)
	if s.maxPerCategory > 0 && len(list) > s.maxPerCategory {
		list = list[len(list)-s.maxPerCategory:]
	}

	encoded, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshaling list %s: %w", key, err)
	}
	if err := put(ctx, tx, key, encoded); err != nil {
		return err
	}

	return tx.Commit()
}

// Clear removes one category list for identity.
func (s *SQLiteStore) Clear(ctx context.Context, identity string, category model.Category) error {
	return s.Delete(ctx, Key(identity, category))
}

// ClearAll removes every category list for identity. Keys are built from
// the category list rather than matched by prefix, because one identity can
// be a prefix of another.
func (s *SQLiteStore) ClearAll(ctx context.Context, identity string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range model.Categories {
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", Key(identity, c)); err != nil {
			return fmt.Errorf("clearing %s for %s: %w", c, identity, err)
		}
	}

	return tx.Commit()
}

// decodeList unmarshals a stored list. Records missing a category inherit
// the list's category.
func decodeList(key string, category model.Category, raw []byte) ([]model.Notification, error) {
	var list []model.Notification
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", ErrMalformed, key, err)
	}
	if list == nil {
		list = []model.Notification{}
	}
	for i := range list {
		if list[i].Category == "" {
			list[i].Category = category
		}
	}
	return list, nil
}
