// Package storage persists opaque documents under string keys. The board
// store keeps its whole state in one such document; backends differ only in
// where the bytes live.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a key has no stored document.
var ErrNotFound = errors.New("not found")

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store is a key-value document store.
type Store interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Load returns the document stored under key.
	// Returns ErrNotFound if the key does not exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the document stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes key. Returns ErrNotFound if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}

// Locator is implemented by backends whose documents live in a file that
// can be watched for external changes.
type Locator interface {
	Path(key string) string
}

// Open returns the backend named by backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, SQLiteFileName))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// ValidBackends lists the accepted backend names.
func ValidBackends() []string {
	return []string{BackendFile, BackendSQLite, BackendMemory}
}
