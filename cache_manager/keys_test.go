package cache_manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	data := map[string]any{
		"query":  "what does the analyzer do",
		"thread": "thread_abc123",
		"nested": map[string]any{"b": 2, "a": 1},
	}

	k1, err := DeriveKey(data)
	require.NoError(t, err)
	k2, err := DeriveKey(data)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64) // sha256 hex
}

func TestDeriveKey_OrderIndependent(t *testing.T) {
	// Structurally equal maps built in different insertion orders.
	d1 := map[string]any{}
	d1["alpha"] = "1"
	d1["beta"] = map[string]any{}
	d1["beta"].(map[string]any)["x"] = 10
	d1["beta"].(map[string]any)["y"] = 20

	d2 := map[string]any{}
	d2["beta"] = map[string]any{}
	d2["beta"].(map[string]any)["y"] = 20
	d2["beta"].(map[string]any)["x"] = 10
	d2["alpha"] = "1"

	k1, err := DeriveKey(d1)
	require.NoError(t, err)
	k2, err := DeriveKey(d2)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestDeriveKey_DistinctData(t *testing.T) {
	k1, err := DeriveKey(map[string]any{"q": "hello"})
	require.NoError(t, err)
	k2, err := DeriveKey(map[string]any{"q": "hello "})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestDeriveKey_StructAndMapAgree(t *testing.T) {
	type keyData struct {
		Content string `json:"content"`
		Thread  string `json:"thread"`
	}

	k1, err := DeriveKey(keyData{Content: "hi", Thread: "t1"})
	require.NoError(t, err)
	k2, err := DeriveKey(map[string]string{"thread": "t1", "content": "hi"})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestDeriveKey_Unserializable(t *testing.T) {
	_, err := DeriveKey(map[string]any{"ch": make(chan int)})
	require.Error(t, err)

	var serr *SerializationError
	assert.ErrorAs(t, err, &serr)
}
