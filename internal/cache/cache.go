// Package cache persists derived pipeline artifacts keyed by input
// fingerprints, so re-runs with unchanged inputs reload instead of
// recomputing. Corruption of any kind downgrades to a recompute; this
// layer is never allowed to fail a run.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dpup/prefab/logging"
)

// Store exposes raw cache entry access. Implementations: DiskStore for
// production, MemoryStore for tests. The store is dependency-injected,
// never a process global.
type Store interface {
	// Read returns the entry's bytes and whether it exists
	Read(ctx context.Context, key string) ([]byte, bool, error)

	// Write persists an entry; implementations must be atomic so a killed
	// process never leaves a half-written entry
	Write(ctx context.Context, key string, data []byte) error

	// Delete removes a single entry if present
	Delete(ctx context.Context, key string) error

	// Clear removes every entry
	Clear(ctx context.Context) error
}

// Fingerprint is a content-derived identity for a specific input snapshot
type Fingerprint string

// NewFingerprint hashes the given parts into a fingerprint. Parts are
// length-prefixed so ("ab","c") and ("a","bc") differ.
func NewFingerprint(parts ...string) Fingerprint {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%d:", len(part))
		h.Write([]byte(part))
	}
	return Fingerprint(fmt.Sprintf("%x", h.Sum(nil)))
}

// BytesFingerprint hashes a raw payload (e.g. the network snapshot)
func BytesFingerprint(data []byte) Fingerprint {
	return Fingerprint(fmt.Sprintf("%x", sha256.Sum256(data)))
}

// FilesFingerprint derives a fingerprint from file identities: name,
// modification time, and size, in sorted order. Editing, adding, or
// removing a file changes the fingerprint without reading file contents.
func FilesFingerprint(paths []string) (Fingerprint, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	parts := make([]string, 0, len(sorted))
	for _, path := range sorted {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		parts = append(parts, fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size()))
	}
	return NewFingerprint(parts...), nil
}

// Key builds a namespaced store key for a fingerprinted artifact
func Key(namespace string, fp Fingerprint) string {
	return fmt.Sprintf("%s-%s", namespace, fp)
}

// GetOrCompute returns the cached artifact under key, or runs compute and
// caches its result. Unreadable or corrupt entries are treated as misses.
// Cache write failures are logged but do not fail the computation.
func GetOrCompute[T any](ctx context.Context, store Store, key string, compute func() (T, error)) (T, error) {
	// Callers outside a server context (CLI, tests) may not carry a logger
	ctx = logging.EnsureLogger(ctx)

	var value T

	data, found, err := store.Read(ctx, key)
	if err != nil {
		logging.Warnw(ctx, "Cache read failed, recomputing", "key", key, "error", err)
	} else if found {
		if err := json.Unmarshal(data, &value); err != nil {
			logging.Warnw(ctx, "Corrupt cache entry, recomputing", "key", key, "error", err)
		} else {
			logging.Infow(ctx, "Cache hit", "key", key)
			return value, nil
		}
	}

	value, err = compute()
	if err != nil {
		return value, err
	}

	data, err = json.Marshal(value)
	if err != nil {
		logging.Warnw(ctx, "Failed to serialize artifact for cache", "key", key, "error", err)
		return value, nil
	}
	if err := store.Write(ctx, key, data); err != nil {
		logging.Warnw(ctx, "Failed to write cache entry", "key", key, "error", err)
	}
	return value, nil
}

// entryFileName maps a store key to a safe file name
func entryFileName(key string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", string(os.PathSeparator), "_")
	return replacer.Replace(key) + ".json"
}
