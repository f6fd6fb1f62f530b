// Package keystore holds provider API keys on the server side. Keys are
// written to a 0600 file in the data directory and are never included in API
// responses; the rest of the system only ever learns "configured or not".
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"sflstudio/internal/logging"
)

type entry struct {
	Key     string    `json:"key"`
	BaseURL string    `json:"base_url,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// Store is a mutex-guarded provider->key map backed by a JSON file.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]entry
	logger  logging.Logger
}

func New(path string) (*Store, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create keystore directory: %w", err)
	}

	s := &Store{
		path:    path,
		entries: make(map[string]entry),
		logger:  logging.NewComponentLogger("Keystore"),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		// A corrupt keystore means re-entering keys, not losing data.
		s.logger.Error("keystore file %s is corrupt, starting empty: %v", path, err)
		s.entries = make(map[string]entry)
	}
	return s, nil
}

// Save stores or replaces the key for a provider.
func (s *Store) Save(provider, key, baseURL string) error {
	provider = strings.TrimSpace(provider)
	key = strings.TrimSpace(key)
	if provider == "" {
		return fmt.Errorf("provider is required")
	}
	if key == "" {
		return fmt.Errorf("api key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[provider] = entry{Key: key, BaseURL: baseURL, SavedAt: time.Now()}
	return s.persistLocked()
}

// Delete removes a provider's key. Deleting an absent key is not an error.
func (s *Store) Delete(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[provider]; !ok {
		return nil
	}
	delete(s.entries, provider)
	return s.persistLocked()
}

// Has reports whether a key exists for the provider (existence, not validity).
func (s *Store) Has(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[provider]
	return ok
}

// Configured returns the sorted list of providers with stored keys.
func (s *Store) Configured() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for provider := range s.entries {
		out = append(out, provider)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the raw key and base URL for internal use (provider probes).
// Handlers must never serialize these values.
func (s *Store) Lookup(provider string) (key, baseURL string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[provider]
	if !ok {
		return "", "", false
	}
	return e.Key, e.BaseURL, true
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode keystore: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace keystore: %w", err)
	}
	return nil
}
