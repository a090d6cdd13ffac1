// Package settings persists UI preferences between runs. Browsing state
// (books, chapters, selected verses) is deliberately not stored.
package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

type Settings struct {
	Theme        string `json:"theme"`         // theme key
	LastProvider string `json:"last_provider"` // sign-in method used last
}

// Store reads and writes Settings at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store for path. An empty path yields a store that
// never persists anything.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns settings.json under the user config dir.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "biblia-tui", "settings.json")
}

func (s *Store) Load() (Settings, error) {
	var out Settings
	if s.path == "" {
		return out, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		// No settings = just return zero value, no error
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return out, err
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return Settings{}, err
	}

	return out, nil
}

func (s *Store) Save(v Settings) error {
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}
