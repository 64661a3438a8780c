package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore persists the document as a single JSON file. All mutations go
// through one mutex, so in-process writers are serialized and cannot lose
// each other's updates. Writes are atomic via temp file + rename. Two
// separate processes sharing the file can still race; run one instance per
// data file.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   path,
		logger: logger.With("component", "store"),
	}
}

// Load reads the full document. A missing or unreadable file yields an empty
// document rather than an error, so a corrupt database never takes the
// pipeline down.
func (s *FileStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(), nil
}

// Save persists the full document snapshot.
func (s *FileStore) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(doc)
}

// Update applies fn to userID's record and persists the document, holding
// the lock across the whole load-modify-save cycle.
func (s *FileStore) Update(userID string, fn func(*UserRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	if err := fn(doc.GetOrCreateUser(userID)); err != nil {
		return err
	}
	return s.saveLocked(doc)
}

// UserIDs lists every user present in the document, sorted for stable output.
func (s *FileStore) UserIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	ids := make([]string, 0, len(doc.Users))
	for id := range doc.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) loadLocked() *Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("database load failed, starting empty", "path", s.path, "error", err)
		}
		return NewDocument()
	}

	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Error("database parse failed, starting empty", "path", s.path, "error", err)
		return NewDocument()
	}
	if doc.Users == nil {
		doc.Users = map[string]*UserRecord{}
	}
	return doc
}

func (s *FileStore) saveLocked(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding database: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing database file: %w", err)
	}
	return nil
}

// Compile-time interface verification.
var _ Store = (*FileStore)(nil)
