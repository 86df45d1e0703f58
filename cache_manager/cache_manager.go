// Package cache_manager implements the local response/analysis cache: a
// content-addressed, two-tier (in-memory + persistent-file) store with
// time-based expiry. It shields repeated identical calls to external
// services and repeated analysis of unchanged source trees.
//
// The file tier keeps one JSON file per entry under the cache directory,
// named by the derived key. Multiple processes may share that directory;
// readers treat any unreadable or malformed file as absent and delete it,
// so races degrade to a spurious miss, never to corrupted state.
package cache_manager

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultMaxAge is the TTL applied when the caller does not configure one.
const DefaultMaxAge = 24 * time.Hour

const fileExt = ".json"

// entry is the serialized form of a cached item, on disk and in memory.
// Timestamp is wall-clock seconds since the epoch, matching the file layout
// {"timestamp": ..., "data": ...}.
type entry[T any] struct {
	Timestamp float64 `json:"timestamp"`
	Data      T       `json:"data"`
}

// Manager is a two-tier cache for values of type T. Values must round-trip
// through JSON. Returned values are owned by the cache: callers must not
// mutate them in place and expect persistence; mutation requires a new Set.
type Manager[T any] struct {
	cacheDir string
	maxAge   time.Duration
	logger   *slog.Logger
	stats    *Stats

	mutex  sync.RWMutex
	memory map[string]entry[T]

	// now is swapped out by expiry tests.
	now func() time.Time
}

// DefaultDir returns the per-namespace cache directory under the user's
// application data directory, e.g. ~/.jarvis/cache/openai.
func DefaultDir(namespace string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".jarvis", "cache", namespace), nil
}

// New creates a Manager writing to cacheDir with the given TTL. A zero or
// negative maxAge falls back to DefaultMaxAge. The directory is created if
// missing; failure to create it is not fatal, the manager then degrades to
// memory-tier-only behavior.
func New[T any](cacheDir string, maxAge time.Duration, logger *slog.Logger) *Manager[T] {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		logger.Error("failed to create cache directory, file tier disabled", "dir", cacheDir, "error", err)
	}

	return &Manager[T]{
		cacheDir: cacheDir,
		maxAge:   maxAge,
		logger:   logger,
		stats:    &Stats{startedAt: time.Now()},
		memory:   make(map[string]entry[T]),
		now:      time.Now,
	}
}

// MaxAge reports the configured TTL.
func (m *Manager[T]) MaxAge() time.Duration { return m.maxAge }

// Dir reports the file tier directory.
func (m *Manager[T]) Dir() string { return m.cacheDir }

func (m *Manager[T]) cachePath(key string) string {
	return filepath.Join(m.cacheDir, key+fileExt)
}

func (m *Manager[T]) fresh(e entry[T], maxAge time.Duration) bool {
	age := float64(m.now().UnixNano())/float64(time.Second) - e.Timestamp
	return age < maxAge.Seconds()
}

// Get returns the cached value for keyData if present and fresh in either
// tier. The memory tier is consulted first; a fresh file-tier entry is
// promoted into memory. Stale or corrupt entries are removed on the way.
// The only returned error is a SerializationError for unencodable key data;
// cache unavailability behaves exactly like an always-empty cache.
func (m *Manager[T]) Get(keyData any) (T, bool, error) {
	var zero T

	key, err := DeriveKey(keyData)
	if err != nil {
		return zero, false, err
	}

	m.mutex.Lock()
	if e, ok := m.memory[key]; ok {
		if m.fresh(e, m.maxAge) {
			m.mutex.Unlock()
			m.stats.recordHit()
			m.logger.Debug("cache hit", "tier", "memory", "key", key)
			return e.Data, true, nil
		}
		delete(m.memory, key)
		m.logger.Debug("cache entry expired, evicted", "tier", "memory", "key", key)
	}
	m.mutex.Unlock()

	path := m.cachePath(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Error("failed to read cache file, treating as miss", "path", path, "error", err)
			m.removeFile(path)
		} else {
			m.logger.Debug("cache miss", "key", key)
		}
		m.stats.recordMiss()
		return zero, false, nil
	}

	var e entry[T]
	if err := json.Unmarshal(raw, &e); err != nil || e.Timestamp == 0 {
		m.logger.Error("corrupt cache entry removed", "path", path, "error", err)
		m.removeFile(path)
		m.stats.recordMiss()
		return zero, false, nil
	}

	if !m.fresh(e, m.maxAge) {
		m.logger.Debug("cache entry expired, removed", "tier", "file", "key", key)
		m.removeFile(path)
		m.stats.recordMiss()
		return zero, false, nil
	}

	// Promote so the next read is served from memory.
	m.mutex.Lock()
	m.memory[key] = e
	m.mutex.Unlock()

	m.stats.recordHit()
	m.logger.Debug("cache hit", "tier", "file", "key", key)
	return e.Data, true, nil
}

// Set stores value under keyData in both tiers, stamped with the current
// wall-clock time. A file-tier write failure is logged and swallowed: the
// memory tier still holds the value, so within-process semantics survive a
// read-only filesystem.
func (m *Manager[T]) Set(keyData any, value T) error {
	key, err := DeriveKey(keyData)
	if err != nil {
		return err
	}

	e := entry[T]{
		Timestamp: float64(m.now().UnixNano()) / float64(time.Second),
		Data:      value,
	}

	m.mutex.Lock()
	m.memory[key] = e
	m.mutex.Unlock()

	if err := m.writeFile(key, e); err != nil {
		m.logger.Error("failed to persist cache entry, memory tier only", "key", key, "error", err)
	}
	return nil
}

// writeFile persists an entry as a self-contained unit: the bytes land in a
// temp file which is renamed over the final name, so a concurrent reader
// never observes a half-written entry.
func (m *Manager[T]) writeFile(key string, e entry[T]) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(m.cacheDir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush cache entry: %w", err)
	}

	if err := os.Rename(tmpName, m.cachePath(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish cache entry: %w", err)
	}
	return nil
}

func (m *Manager[T]) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.Error("failed to remove cache file", "path", path, "error", err)
	}
}

// Clear sweeps both tiers, removing every entry older than maxAge; a zero
// or negative maxAge uses the manager's TTL. Malformed file-tier entries
// are removed and counted too. Returns the total removed across both tiers.
func (m *Manager[T]) Clear(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = m.maxAge
	}

	removed := 0

	m.mutex.Lock()
	for key, e := range m.memory {
		if !m.fresh(e, maxAge) {
			delete(m.memory, key)
			removed++
		}
	}
	m.mutex.Unlock()

	files, err := os.ReadDir(m.cacheDir)
	if err != nil {
		m.logger.Error("failed to read cache directory during sweep", "dir", m.cacheDir, "error", err)
		return removed
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) {
			continue
		}
		path := filepath.Join(m.cacheDir, f.Name())

		raw, err := os.ReadFile(path)
		if err != nil {
			m.logger.Error("unreadable cache file removed during sweep", "path", path, "error", err)
			if os.Remove(path) == nil {
				removed++
			}
			continue
		}

		var e entry[json.RawMessage]
		if err := json.Unmarshal(raw, &e); err != nil || e.Timestamp == 0 {
			m.logger.Error("malformed cache file removed during sweep", "path", path, "error", err)
			if os.Remove(path) == nil {
				removed++
			}
			continue
		}

		age := float64(m.now().UnixNano())/float64(time.Second) - e.Timestamp
		if age > maxAge.Seconds() {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}

	m.logger.Debug("cache sweep finished", "dir", m.cacheDir, "removed", removed)
	return removed
}
