package cache_manager

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/zeebo/xxh3"
)

// Key derivation sits on every cache access, so compare the chosen
// collision-resistant digest against a fast non-cryptographic hash.
// sha256 stays the default: fingerprint keys must survive adversarial or
// merely unlucky collisions across runs, which xxh3 does not guarantee.
func BenchmarkKeyDigest(b *testing.B) {
	inputs := []string{
		`{"content":"explain the cache manager","thread":"thread_9f2"}`,
		`{"dir":"/home/user/project","files":["a.py:1700000000:512","b.py:1700000100:2048"]}`,
		`{"content":"what changed in the analyzer since yesterday","thread":"thread_9f2"}`,
		`{"dir":"/srv/big/monorepo","files":["x.py:1699999999:100","y.py:1700000001:9000"]}`,
	}

	b.Run("SHA256", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sum := sha256.Sum256([]byte(inputs[i%len(inputs)]))
			_ = fmt.Sprintf("%x", sum)
		}
	})

	b.Run("XXH3", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sum := xxh3.HashString(inputs[i%len(inputs)])
			_ = fmt.Sprintf("%x", sum)
		}
	})
}

func BenchmarkDeriveKey(b *testing.B) {
	keyData := map[string]any{
		"content": "summarize the project structure for me",
		"thread":  "thread_bench",
		"files":   []string{"cache_manager.go", "analyzer.go", "prompt.go"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DeriveKey(keyData); err != nil {
			b.Fatal(err)
		}
	}
}
