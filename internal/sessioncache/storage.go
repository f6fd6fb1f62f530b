package sessioncache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Storage is the small capability interface the cache writes through. It
// mirrors ephemeral browser storage: a flat namespace of string values that
// may be unavailable or fail at any time. Implementations must not panic.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string)
	Available() bool
}

// MemoryStorage is a process-local Storage, used for tests and as the
// fallback when no data directory is configured.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *MemoryStorage) Available() bool { return true }

// FileStorage keeps each key as a small file under a base directory. The
// availability probe is a write-read-delete round trip, because the directory
// can be read-only or the disk full.
type FileStorage struct {
	baseDir string
}

func NewFileStorage(baseDir string) *FileStorage {
	if strings.HasPrefix(baseDir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			baseDir = filepath.Join(home, baseDir[2:])
		}
	}
	_ = os.MkdirAll(baseDir, 0700)
	return &FileStorage{baseDir: baseDir}
}

func (s *FileStorage) path(key string) string {
	// Keys are fixed constants chosen by this package, never user input.
	return filepath.Join(s.baseDir, key+".json")
}

func (s *FileStorage) Get(key string) (string, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (s *FileStorage) Set(key, value string) error {
	return os.WriteFile(s.path(key), []byte(value), 0600)
}

func (s *FileStorage) Remove(key string) {
	_ = os.Remove(s.path(key))
}

func (s *FileStorage) Available() bool {
	probe := s.path(".probe")
	if err := os.WriteFile(probe, []byte("ok"), 0600); err != nil {
		return false
	}
	data, err := os.ReadFile(probe)
	_ = os.Remove(probe)
	return err == nil && string(data) == "ok"
}
