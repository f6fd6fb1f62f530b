// Package prompts manages the studio's prompt records: the prompt text plus
// its SFL metadata (field, tenor, mode) and the optional provider/model
// binding used when the prompt is run. Records live as one JSON file each
// under the data directory.
package prompts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sflstudio/internal/catalog"
	"sflstudio/internal/logging"
)

// SFLMetadata structures a prompt along the three systemic functional
// linguistics dimensions the studio authors prompts with.
type SFLMetadata struct {
	// Field: what the prompt is about (topic, task, domain keywords).
	Field string `json:"field"`
	// Tenor: who is speaking to whom (persona, audience, formality).
	Tenor string `json:"tenor"`
	// Mode: how the output should be organized (format, medium, length).
	Mode string `json:"mode"`
}

// Record is one stored prompt.
type Record struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	Body       string                  `json:"body"`
	SFL        SFLMetadata             `json:"sfl"`
	Provider   string                  `json:"provider,omitempty"`
	Model      string                  `json:"model,omitempty"`
	Parameters catalog.ModelParameters `json:"parameters,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// ErrNotFound is returned for lookups and updates of unknown prompt ids.
var ErrNotFound = fmt.Errorf("prompt not found")

// Store is a file-per-record prompt store.
type Store struct {
	mu      sync.Mutex
	baseDir string
	logger  logging.Logger
}

func NewStore(baseDir string) (*Store, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create prompt directory: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		logger:  logging.NewComponentLogger("PromptStore"),
	}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Create assigns an id and timestamps, then writes the record exclusively so
// an id collision fails instead of overwriting.
func (s *Store) Create(record Record) (Record, error) {
	if strings.TrimSpace(record.Title) == "" {
		return Record{}, fmt.Errorf("prompt title is required")
	}
	if strings.TrimSpace(record.Body) == "" {
		return Record{}, fmt.Errorf("prompt body is required")
	}

	now := time.Now()
	record.ID = "prompt_" + uuid.NewString()
	record.CreatedAt = now
	record.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return Record{}, err
	}
	f, err := os.OpenFile(s.path(record.ID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return Record{}, fmt.Errorf("create prompt file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return Record{}, fmt.Errorf("write prompt: %w", err)
	}
	return record, nil
}

// Get loads one record by id.
func (s *Store) Get(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(id)
}

func (s *Store) readLocked(id string) (Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return Record{}, ErrNotFound
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Error("failed to decode prompt file %s: %v", s.path(id), err)
		return Record{}, fmt.Errorf("decode prompt %s: %w", id, err)
	}
	return record, nil
}

// Update replaces the mutable fields of an existing record, preserving id and
// creation time.
func (s *Store) Update(id string, update Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readLocked(id)
	if err != nil {
		return Record{}, err
	}

	if strings.TrimSpace(update.Title) != "" {
		existing.Title = update.Title
	}
	if strings.TrimSpace(update.Body) != "" {
		existing.Body = update.Body
	}
	existing.SFL = update.SFL
	existing.Provider = update.Provider
	existing.Model = update.Model
	existing.Parameters = update.Parameters
	existing.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return Record{}, err
	}
	if err := os.WriteFile(s.path(id), data, 0644); err != nil {
		return Record{}, fmt.Errorf("write prompt: %w", err)
	}
	return existing, nil
}

// Delete removes a record. Unknown ids return ErrNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete prompt: %w", err)
	}
	return nil
}

// List returns all records, newest first. Files that fail to decode are
// logged and skipped so one corrupt record cannot hide the rest.
func (s *Store) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read prompt directory: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		record, err := s.readLocked(id)
		if err != nil {
			s.logger.Warn("skipping unreadable prompt %s: %v", id, err)
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Search filters List by a case-insensitive substring over title and body.
func (s *Store) Search(query string) ([]Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records, nil
	}
	matched := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Title), query) ||
			strings.Contains(strings.ToLower(r.Body), query) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}
