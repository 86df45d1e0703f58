package openai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewMetaStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Load())

	assert.Empty(t, store.Get("thread_id"))

	store.Set("thread_id", "thread_abc123")
	store.Set("assistant_id", "asst_42")
	require.NoError(t, store.Save())

	reopened, err := NewMetaStore(dir)
	require.NoError(t, err)
	require.NoError(t, reopened.Load())

	assert.Equal(t, "thread_abc123", reopened.Get("thread_id"))
	assert.Equal(t, "asst_42", reopened.Get("assistant_id"))
}

func TestMetaStore_MissingFileStartsEmpty(t *testing.T) {
	store, err := NewMetaStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Load())
	assert.Empty(t, store.Get("thread_id"))
}

func TestMetaStore_ConstructionTouchesNothing(t *testing.T) {
	dir := t.TempDir()

	_, err := NewMetaStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, metaFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestMetaStore_CorruptFileReportsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, metaFileName), []byte("{not json"), 0o644))

	store, err := NewMetaStore(dir)
	require.NoError(t, err)

	assert.Error(t, store.Load())
}
