package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dpup/prefab/logging"
)

// DiskStore persists cache entries as files under a single directory.
// Writes go to a temp file first and are renamed into place, so readers
// never observe a partially written entry.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the cache directory if needed
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Read returns the entry's bytes if present
func (s *DiskStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return data, true, nil
}

// Write atomically persists an entry
func (s *DiskStore) Write(ctx context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, entryFileName(key)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move cache entry into place: %w", err)
	}
	return nil
}

// Delete removes a single entry; missing entries are not an error
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// Clear removes every entry in the cache directory
func (s *DiskStore) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to clear cache entry %s: %w", entry.Name(), err)
		}
	}
	logging.Infow(logging.EnsureLogger(ctx), "Cleared cache", "dir", s.dir, "entries", len(entries))
	return nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, entryFileName(key))
}
