package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists one row per user, with the record serialized as a
// JSON document column. Update runs inside an IMMEDIATE transaction, so the
// read-modify-write cycle is isolated even across processes — this is the
// backend to pick when more than one instance shares the data.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id     TEXT PRIMARY KEY,
		record TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Load reads every user row into a document.
func (s *SQLiteStore) Load() (*Document, error) {
	rows, err := s.db.Query(`SELECT id, record FROM users`)
	if err != nil {
		s.logger.Error("database load failed, starting empty", "error", err)
		return NewDocument(), nil
	}
	defer rows.Close()

	doc := NewDocument()
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		user := NewUserRecord()
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			s.logger.Error("skipping unreadable user record", "user", id, "error", err)
			continue
		}
		doc.Users[id] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return doc, nil
}

// Save writes the full document, replacing every stored row.
func (s *SQLiteStore) Save(doc *Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM users`); err != nil {
		return fmt.Errorf("clearing users: %w", err)
	}
	for id, user := range doc.Users {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("encoding user %s: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO users (id, record) VALUES (?, ?)`, id, string(raw)); err != nil {
			return fmt.Errorf("writing user %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Update applies fn to userID's record inside a transaction.
func (s *SQLiteStore) Update(userID string, fn func(*UserRecord) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback()

	user := NewUserRecord()
	var raw string
	err = tx.QueryRow(`SELECT record FROM users WHERE id = ?`, userID).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		// Lazily provisioned below.
	case err != nil:
		return fmt.Errorf("reading user %s: %w", userID, err)
	default:
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			s.logger.Error("resetting unreadable user record", "user", userID, "error", err)
			user = NewUserRecord()
		}
	}

	if err := fn(user); err != nil {
		return err
	}

	updated, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user %s: %w", userID, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO users (id, record) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record`,
		userID, string(updated),
	); err != nil {
		return fmt.Errorf("writing user %s: %w", userID, err)
	}
	return tx.Commit()
}

// UserIDs lists every stored user id.
func (s *SQLiteStore) UserIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Compile-time interface verification.
var _ Store = (*SQLiteStore)(nil)
