// Package store is the client's persistent state: a small sqlite
// database holding the session token and UI preferences in a key/value
// settings table. It is the terminal analog of the web client's
// localStorage.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// TokenKey is the fixed settings key the session token lives under.
const TokenKey = "session_token"

// Store wraps the SQL database connection.
type Store struct {
	*sql.DB
}

// DefaultPath returns the default database file path inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "taskdeck.db")
}

// Open opens the settings database and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{DB: sqlDB}

	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate runs database migrations using embedded SQL files
func (s *Store) migrate() error {
	// Silence goose logging (it corrupts TUI output)
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(s.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// GetSetting returns the value for key, or "" when the key is absent.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// DeleteSetting removes key. Deleting an absent key is not an error.
func (s *Store) DeleteSetting(key string) error {
	_, err := s.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// Token returns the stored session token, or "" when logged out.
func (s *Store) Token() (string, error) {
	return s.GetSetting(TokenKey)
}

// SaveToken persists the session token.
func (s *Store) SaveToken(token string) error {
	return s.SetSetting(TokenKey, token)
}

// ClearToken removes the session token.
func (s *Store) ClearToken() error {
	return s.DeleteSetting(TokenKey)
}
