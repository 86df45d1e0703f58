package openai

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const metaFileName = "assistants.json"

// MetaStore persists small per-session identifiers (thread id, assistant
// id) as a JSON object in the user's data directory. Load and Save are
// explicit; constructing a store touches nothing on disk.
type MetaStore struct {
	path   string
	values map[string]string
}

// NewMetaStore builds a store rooted at dir. An empty dir selects the
// default ~/.jarvis location.
func NewMetaStore(dir string) (*MetaStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".jarvis")
	}
	return &MetaStore{
		path:   filepath.Join(dir, metaFileName),
		values: make(map[string]string),
	}, nil
}

// Load reads the backing file. A missing file is not an error; the store
// just starts empty.
func (s *MetaStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return err
	}
	s.values = values
	return nil
}

// Save writes the current values atomically.
func (s *MetaStore) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), metaFileName+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Get returns the stored value for key, or "".
func (s *MetaStore) Get(key string) string {
	return s.values[key]
}

// Set records a value in memory; call Save to persist.
func (s *MetaStore) Set(key, value string) {
	s.values[key] = value
}
