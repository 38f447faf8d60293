package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when a key has never been written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// KV is the durable local key-value storage window state is mirrored to.
// Writes are synchronous; a successful Put is visible to the next Get.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend Backend
	// Path is a directory for the file backend and a database file for sqlite.
	Path string
}

// Open returns the configured backend.
func Open(opts Options) (KV, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileKV(opts.Path)
	case BackendSQLite:
		return NewSQLiteKV(opts.Path)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", opts.Backend)
	}
}

func validateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("storage key is required")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
