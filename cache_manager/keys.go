package cache_manager

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SerializationError reports key data that has no canonical textual form
// (channels, funcs, cyclic values). It is the only error the cache subsystem
// ever returns to a caller.
type SerializationError struct {
	err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cache key data is not serializable: %v", e.err)
}

func (e *SerializationError) Unwrap() error { return e.err }

// DeriveKey turns arbitrary JSON-like key data into a stable hex digest.
// The data is serialized to JSON and re-normalized through interface{} so
// that mapping keys are emitted in sorted order at every nesting level:
// two structurally equal values hash identically regardless of insertion
// order. The digest is sha256, so distinct key data collides only with
// negligible probability.
func DeriveKey(keyData any) (string, error) {
	raw, err := json.Marshal(keyData)
	if err != nil {
		return "", &SerializationError{err: err}
	}

	// Round-trip through interface{} to canonicalize map key order.
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return "", &SerializationError{err: err}
	}
	canonical, err := json.Marshal(normalized)
	if err != nil {
		return "", &SerializationError{err: err}
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
