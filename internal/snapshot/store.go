package snapshot

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrSnapshotNotFound is returned when no snapshot matches a reference.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrClassNotFound is returned when a snapshot does not contain a class.
	ErrClassNotFound = errors.New("class not found")
)

// connParams are applied by the driver to every connection it opens.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"1"},
}

// migration upgrades the schema to version.
type migration struct {
	version int
	stmt    string
}

// migrations run in order on databases whose user_version is below their
// version. The base schema is version 0.
var migrations = []migration{
	// WHERE clauses compile to EXISTS lookups on (instance_id, name, value).
	{version: 1, stmt: `CREATE INDEX IF NOT EXISTS idx_properties_lookup ON properties(instance_id, name, value)`},
}

// Store keeps snapshots in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and brings its schema up to
// date. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		// PRAGMA does not take bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}
	return nil
}

func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, want %q", name, value, expected)
	}
	return nil
}
