package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added conversation index on turns
const currentSchemaVersion = 1

// ErrSchemaVersion is returned when a read-only journal was written by a
// different schema version and cannot be migrated in place.
var ErrSchemaVersion = errors.New("unsupported journal schema version")

// ErrReadOnly is returned by writes on a journal opened with ReadOnly.
var ErrReadOnly = errors.New("journal is read-only")

// Store is the durable turn journal. Uses SQLite with WAL mode so replay
// and trace can read while a run appends.
type Store struct {
	db       *sql.DB
	readOnly bool
}

type config struct {
	readOnly    bool
	busyTimeout time.Duration
}

// Option configures Open.
type Option func(*config)

// ReadOnly opens an existing journal without creating or migrating it.
// Writes fail.
func ReadOnly() Option {
	return func(c *config) { c.readOnly = true }
}

// WithBusyTimeout sets how long a statement waits on a locked journal.
// Defaults to 5s.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *config) { c.busyTimeout = d }
}

// Open creates or opens the journal at path.
//
// A writable journal gets WAL mode, NORMAL synchronous, foreign keys and
// the embedded schema with pending migrations. A ReadOnly journal must
// already exist at the current schema version.
//
// Safe to call multiple times on the same path.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := path
	if cfg.readOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro", path)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite allows a single writer, and per-connection
	// pragmas then apply to every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if cfg.readOnly {
		err = checkSchemaVersion(db)
	} else {
		err = applySchema(db)
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, readOnly: cfg.readOnly}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB, cfg config) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	if !cfg.readOnly {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func checkSchemaVersion(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version != currentSchemaVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrSchemaVersion, version, currentSchemaVersion)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 indexes turns by conversation for replay and trace reads.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_turns_conversation
		ON turns(conversation_id, seq)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
