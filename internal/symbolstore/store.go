// Package symbolstore persists symbol-extraction results in a local
// SQLite database, keyed by file path and content hash, so the structure
// pass does not re-parse unchanged files across runs.
package symbolstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danebolt/weft/pkg/models"
)

// Store wraps an SQLite database holding cached FileSymbolInfo records.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultPath returns the project-local database path.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".weft", "symbols.db")
}

// Open opens (creating if needed) the symbol cache at the given path.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS symbol_cache (
		path       TEXT NOT NULL,
		hash       TEXT NOT NULL,
		info       TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (path)
	);`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Hash returns the content hash used as the cache key component.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached info for a path when the stored hash matches.
func (s *Store) Get(path, hash string) (*models.FileSymbolInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var storedHash, payload string
	err := s.conn.QueryRow(
		"SELECT hash, info FROM symbol_cache WHERE path = ?", path,
	).Scan(&storedHash, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query symbol cache: %w", err)
	}
	if storedHash != hash {
		return nil, false, nil
	}

	info := &models.FileSymbolInfo{}
	if err := json.Unmarshal([]byte(payload), info); err != nil {
		// Corrupt rows are treated as cache misses.
		return nil, false, nil
	}
	return info, true, nil
}

// Put stores or replaces the cached info for a path.
func (s *Store) Put(path, hash string, info *models.FileSymbolInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode symbol info: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn.Exec(
		`INSERT INTO symbol_cache (path, hash, info, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, info = excluded.info, updated_at = excluded.updated_at`,
		path, hash, string(payload), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store symbol info: %w", err)
	}
	return nil
}
