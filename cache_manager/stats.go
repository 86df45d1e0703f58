package cache_manager

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Stats tracks cache performance counters for a single manager.
type Stats struct {
	mutex     sync.RWMutex
	hits      int64
	misses    int64
	startedAt time.Time
}

// Snapshot is a point-in-time view of a manager's counters and file tier.
type Snapshot struct {
	Hits           int64
	Misses         int64
	TotalRequests  int64
	HitRatePercent float64
	FileCount      int
	TotalSizeBytes int64
	CacheDir       string
	Uptime         time.Duration
}

func (s *Stats) recordHit() {
	s.mutex.Lock()
	s.hits++
	s.mutex.Unlock()
}

func (s *Stats) recordMiss() {
	s.mutex.Lock()
	s.misses++
	s.mutex.Unlock()
}

// Stats reports counters plus the current file-tier footprint. Directory
// read failures leave the file fields at zero; counters are still returned.
func (m *Manager[T]) Stats() Snapshot {
	m.stats.mutex.RLock()
	snap := Snapshot{
		Hits:     m.stats.hits,
		Misses:   m.stats.misses,
		CacheDir: m.cacheDir,
		Uptime:   time.Since(m.stats.startedAt),
	}
	m.stats.mutex.RUnlock()

	snap.TotalRequests = snap.Hits + snap.Misses
	if snap.TotalRequests > 0 {
		snap.HitRatePercent = float64(snap.Hits) / float64(snap.TotalRequests) * 100
	}

	files, err := os.ReadDir(m.cacheDir)
	if err != nil {
		return snap
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) {
			continue
		}
		if info, err := os.Stat(filepath.Join(m.cacheDir, f.Name())); err == nil {
			snap.FileCount++
			snap.TotalSizeBytes += info.Size()
		}
	}
	return snap
}
