// Package store persists digest subscribers and their preferences.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS user_sources (
			user_id INTEGER NOT NULL,
			source  TEXT NOT NULL,
			PRIMARY KEY (user_id, source)
		);

		CREATE TABLE IF NOT EXISTS user_settings (
			user_id       INTEGER PRIMARY KEY,
			hours_default INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("invalid email %q", email)
	}
	return email, nil
}

// UpsertUser registers email if it is new and returns the stored user.
func (s *Store) UpsertUser(email string) (User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	_, err = s.writeDB.Exec(`
		INSERT INTO users (email, created_at) VALUES (?, ?)
		ON CONFLICT(email) DO NOTHING
	`, email, time.Now().UTC())
	if err != nil {
		return User{}, fmt.Errorf("upserting user %s: %w", email, err)
	}
	return s.GetUser(email)
}

func (s *Store) GetUser(email string) (User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	var u User
	err = s.readDB.QueryRow("SELECT id, email, created_at FROM users WHERE email = ?", email).
		Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user %s: %w", email, err)
	}
	return u, nil
}

func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.readDB.Query("SELECT id, email, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RemoveUser deletes a user and their preferences.
func (s *Store) RemoveUser(email string) error {
	u, err := s.GetUser(email)
	if err != nil {
		return err
	}
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM user_sources WHERE user_id = ?",
		"DELETE FROM user_settings WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	} {
		if _, err := tx.Exec(q, u.ID); err != nil {
			return fmt.Errorf("removing user %s: %w", u.Email, err)
		}
	}
	return tx.Commit()
}

// SetUserSources replaces the user's source selection.
func (s *Store) SetUserSources(userID int64, sources []string) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM user_sources WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing sources: %w", err)
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO user_sources (user_id, source) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if _, err := stmt.Exec(userID, src); err != nil {
			return fmt.Errorf("adding source %s: %w", src, err)
		}
	}
	return tx.Commit()
}

// GetUserSources returns the user's sources sorted by key, or nil when the
// user has made no selection.
func (s *Store) GetUserSources(userID int64) ([]string, error) {
	rows, err := s.readDB.Query("SELECT source FROM user_sources WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	slices.Sort(sources)
	return sources, rows.Err()
}

func (s *Store) SetUserHoursDefault(userID int64, hours int) error {
	if hours <= 0 {
		return fmt.Errorf("hours must be positive, got %d", hours)
	}
	_, err := s.writeDB.Exec(`
		INSERT INTO user_settings (user_id, hours_default) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET hours_default = excluded.hours_default
	`, userID, hours)
	if err != nil {
		return fmt.Errorf("setting hours: %w", err)
	}
	return nil
}

// GetUserHoursDefault reports the user's lookback hours; ok is false when
// none is stored.
func (s *Store) GetUserHoursDefault(userID int64) (hours int, ok bool, err error) {
	err = s.readDB.QueryRow("SELECT hours_default FROM user_settings WHERE user_id = ?", userID).Scan(&hours)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying hours: %w", err)
	}
	return hours, true, nil
}

func (s *Store) SetLastRun(t time.Time) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_run', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, t.UTC().Format(time.RFC3339))
	return err
}

// LastRun returns the last recorded send, or the zero time.
func (s *Store) LastRun() (time.Time, error) {
	var value string
	err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = 'last_run'").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last run: %w", err)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last run %q: %w", value, err)
	}
	return t, nil
}
