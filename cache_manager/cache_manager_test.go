package cache_manager

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunikime/jarvis/log_manager"
)

type response struct {
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

func newTestManager(t *testing.T, maxAge time.Duration) *Manager[response] {
	t.Helper()
	return New[response](t.TempDir(), maxAge, log_manager.NewDiscard())
}

func TestManager_RoundTrip(t *testing.T) {
	m := newTestManager(t, time.Hour)

	key := map[string]string{"content": "hello", "thread": "t1"}
	want := response{Text: "hi there", Tokens: 12}

	_, found, err := m.Get(key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.Set(key, want))

	got, found, err := m.Get(key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestManager_Expiry(t *testing.T) {
	const ttl = time.Hour
	m := newTestManager(t, ttl)

	base := time.Now()
	m.now = func() time.Time { return base }

	key := map[string]string{"content": "expiring"}
	require.NoError(t, m.Set(key, response{Text: "still fresh"}))

	// Just inside the TTL the value is served.
	m.now = func() time.Time { return base.Add(ttl - time.Second) }
	got, found, err := m.Get(key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "still fresh", got.Text)

	// Just beyond the TTL the entry is gone from both tiers.
	m.now = func() time.Time { return base.Add(ttl + time.Second) }
	_, found, err = m.Get(key)
	require.NoError(t, err)
	assert.False(t, found)

	derived, err := DeriveKey(key)
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(m.Dir(), derived+fileExt))
	assert.True(t, os.IsNotExist(statErr), "expired file entry should be deleted")
}

func TestManager_CorruptionSelfHeal(t *testing.T) {
	m := newTestManager(t, time.Hour)

	key := map[string]string{"content": "garbage target"}
	derived, err := DeriveKey(key)
	require.NoError(t, err)

	path := filepath.Join(m.Dir(), derived+fileExt)
	require.NoError(t, os.WriteFile(path, []byte("{not json at all"), 0o644))

	_, found, err := m.Get(key)
	require.NoError(t, err)
	assert.False(t, found)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt file should be removed")
}

func TestManager_MissingFieldsTreatedAsCorrupt(t *testing.T) {
	m := newTestManager(t, time.Hour)

	key := map[string]string{"content": "no timestamp"}
	derived, err := DeriveKey(key)
	require.NoError(t, err)

	path := filepath.Join(m.Dir(), derived+fileExt)
	require.NoError(t, os.WriteFile(path, []byte(`{"data":{"text":"x"}}`), 0o644))

	_, found, err := m.Get(key)
	require.NoError(t, err)
	assert.False(t, found)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_CrossTierPromotion(t *testing.T) {
	dir := t.TempDir()
	key := map[string]string{"content": "shared"}
	want := response{Text: "persisted"}

	writer := New[response](dir, time.Hour, log_manager.NewDiscard())
	require.NoError(t, writer.Set(key, want))

	// A fresh manager models a second process with an empty memory tier.
	reader := New[response](dir, time.Hour, log_manager.NewDiscard())
	got, found, err := reader.Get(key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	// The read must not rewrite the file tier.
	derived, err := DeriveKey(key)
	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join(dir, derived+fileExt))
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Contains(t, onDisk, "timestamp")
	assert.Contains(t, onDisk, "data")

	// And the promoted entry now serves from memory even if the file goes.
	require.NoError(t, os.Remove(filepath.Join(dir, derived+fileExt)))
	got, found, err = reader.Get(key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestManager_Clear(t *testing.T) {
	const ttl = time.Hour
	m := newTestManager(t, ttl)

	base := time.Now()
	m.now = func() time.Time { return base }

	require.NoError(t, m.Set(map[string]string{"q": "old"}, response{Text: "old"}))

	m.now = func() time.Time { return base.Add(2 * ttl) }
	require.NoError(t, m.Set(map[string]string{"q": "new"}, response{Text: "new"}))

	// A malformed sibling file counts toward the sweep as well.
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "deadbeef"+fileExt), []byte("junk"), 0o644))

	removed := m.Clear(0)
	// Old entry removed from both tiers plus the malformed file.
	assert.Equal(t, 3, removed)

	_, found, err := m.Get(map[string]string{"q": "new"})
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = m.Get(map[string]string{"q": "old"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestManager_SetUnserializableKey(t *testing.T) {
	m := newTestManager(t, time.Hour)

	err := m.Set(map[string]any{"fn": func() {}}, response{})
	require.Error(t, err)
	var serr *SerializationError
	assert.ErrorAs(t, err, &serr)
}

func TestManager_UnavailableFileTier(t *testing.T) {
	// A cache directory that cannot exist degrades to memory-only behavior.
	bogus := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(bogus, []byte("file in the way"), 0o644))

	m := New[response](filepath.Join(bogus, "cache"), time.Hour, log_manager.NewDiscard())

	key := map[string]string{"q": "memory only"}
	require.NoError(t, m.Set(key, response{Text: "kept"}))

	got, found, err := m.Get(key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "kept", got.Text)
}

func TestManager_Stats(t *testing.T) {
	m := newTestManager(t, time.Hour)

	key := map[string]string{"q": "stats"}
	_, _, err := m.Get(key) // miss
	require.NoError(t, err)
	require.NoError(t, m.Set(key, response{Text: "v"}))
	_, _, err = m.Get(key) // hit
	require.NoError(t, err)

	snap := m.Stats()
	assert.Equal(t, int64(1), snap.Hits)
	assert.Equal(t, int64(1), snap.Misses)
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, 1, snap.FileCount)
	assert.Greater(t, snap.TotalSizeBytes, int64(0))
}
