// Package providerstore owns the single runtime view of "which provider,
// model, and parameters are active right now". All mutations funnel through
// validated transitions; a rejected transition records an error and leaves the
// previous state intact. Committed changes are persisted to the session cache
// best-effort and broadcast to subscribers.
package providerstore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"sflstudio/internal/catalog"
	"sflstudio/internal/logging"
	"sflstudio/internal/sessioncache"
)

// ProviderStatus tracks per-provider readiness as seen by the UI.
type ProviderStatus struct {
	Available   bool      `json:"available"`
	HasAPIKey   bool      `json:"hasApiKey"`
	Valid       bool      `json:"valid"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"lastChecked,omitempty"`
}

// ActiveConfig is the current selection. APIKey is always empty: the raw key
// never leaves the keystore, the field exists only for response-shape
// compatibility with the UI.
type ActiveConfig struct {
	Provider   string                  `json:"provider"`
	Model      string                  `json:"model"`
	Parameters catalog.ModelParameters `json:"parameters"`
	APIKey     string                  `json:"apiKey"`
	HasAPIKey  bool                    `json:"hasApiKey"`
}

// Snapshot is the immutable view handed to subscribers and HTTP handlers.
type Snapshot struct {
	Active     *ActiveConfig             `json:"active"`
	Statuses   map[string]ProviderStatus `json:"statuses"`
	Error      string                    `json:"error,omitempty"`
	Generation uint64                    `json:"generation"`
}

// Store is the mutable provider-configuration state.
type Store struct {
	mu         sync.Mutex
	catalog    *catalog.Catalog
	cache      *sessioncache.Cache
	logger     logging.Logger
	active     *ActiveConfig
	statuses   map[string]ProviderStatus
	configured map[string]bool
	lastErr    string
	generation uint64

	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger logging.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(logger) }
}

// WithSessionCache enables best-effort persistence of committed selections.
func WithSessionCache(cache *sessioncache.Cache) Option {
	return func(s *Store) { s.cache = cache }
}

func New(cat *catalog.Catalog, opts ...Option) *Store {
	s := &Store{
		catalog:     cat,
		logger:      logging.NewComponentLogger("ProviderStore"),
		statuses:    make(map[string]ProviderStatus),
		configured:  make(map[string]bool),
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range cat.Providers() {
		s.statuses[p.ID] = ProviderStatus{Available: true}
	}
	return s
}

// Subscribe registers a callback fired after every committed mutation. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Statuses:   make(map[string]ProviderStatus, len(s.statuses)),
		Error:      s.lastErr,
		Generation: s.generation,
	}
	for k, v := range s.statuses {
		snap.Statuses[k] = v
	}
	if s.active != nil {
		active := *s.active
		active.Parameters = cloneParameters(s.active.Parameters)
		snap.Active = &active
	}
	return snap
}

// Generation returns a counter bumped on every committed provider/model
// change. Async probes capture it before starting and pass it back so results
// that raced a newer switch are discarded.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Err returns the error recorded by the last rejected transition, cleared by
// the next committed one.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// MarkConfigured replaces the set of providers with stored API keys.
func (s *Store) MarkConfigured(providers []string) {
	s.mu.Lock()
	s.configured = make(map[string]bool, len(providers))
	for _, p := range providers {
		s.configured[p] = true
	}
	for id, status := range s.statuses {
		status.HasAPIKey = s.configured[id]
		s.statuses[id] = status
	}
	if s.active != nil {
		s.active.HasAPIKey = s.configured[s.active.Provider]
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetProvider switches the active provider, resetting model and parameters to
// the provider's defaults. Providers that require a key must be configured
// first.
func (s *Store) SetProvider(provider string) error {
	s.mu.Lock()

	cfg, ok := s.catalog.Provider(provider)
	if !ok {
		return s.rejectLocked(fmt.Sprintf("unknown provider: %s", provider))
	}
	if cfg.RequiresAPIKey && !s.configured[provider] {
		return s.rejectLocked(fmt.Sprintf("Provider %s is not configured", provider))
	}
	if len(cfg.Models) == 0 {
		return s.rejectLocked(fmt.Sprintf("provider %s has no models", provider))
	}

	s.active = &ActiveConfig{
		Provider:   provider,
		Model:      cfg.Models[0].ID,
		Parameters: cloneParameters(cfg.DefaultParameters),
		HasAPIKey:  s.configured[provider],
	}
	s.commitLocked()
	return nil
}

// SetModel switches the model within the active provider and resets
// parameters to defaults. The model must belong to the active provider.
func (s *Store) SetModel(modelID string) error {
	s.mu.Lock()

	if s.active == nil {
		return s.rejectLocked("no active provider")
	}
	provider := s.active.Provider
	if _, ok := s.catalog.ModelInfo(provider, modelID); !ok {
		return s.rejectLocked(fmt.Sprintf("model %s not found for provider %s", modelID, provider))
	}

	cfg, _ := s.catalog.Provider(provider)
	s.active.Model = modelID
	s.active.Parameters = cloneParameters(cfg.DefaultParameters)
	s.commitLocked()
	return nil
}

// SetParameters merges a partial parameter set into the active config. The
// merged result is validated before commit; an invalid set is rejected whole,
// with no partial application.
func (s *Store) SetParameters(partial catalog.ModelParameters) error {
	s.mu.Lock()

	if s.active == nil {
		return s.rejectLocked("no active provider")
	}

	merged := cloneParameters(s.active.Parameters)
	for k, v := range partial {
		merged[k] = v
	}

	result := s.catalog.ValidateParameters(s.active.Provider, s.active.Model, merged)
	if !result.Valid {
		return s.rejectLocked(strings.Join(result.Errors, "; "))
	}

	s.active.Parameters = merged
	s.commitLocked()
	return nil
}

// SetAPIKeyStatus updates key-presence bookkeeping for a provider. Only when
// the provider is the active one does the exposed flag refresh. Keys
// themselves never pass through this store.
func (s *Store) SetAPIKeyStatus(provider string, hasKey bool) {
	s.mu.Lock()
	s.configured[provider] = hasKey
	if status, ok := s.statuses[provider]; ok {
		status.HasAPIKey = hasKey
		s.statuses[provider] = status
	}
	if s.active != nil && s.active.Provider == provider {
		s.active.HasAPIKey = hasKey
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// ApplyProbeResult records the outcome of an async provider probe. Results
// from a probe started before a later provider switch are discarded when they
// concern the previously active provider, so a slow response cannot clobber
// newer state.
func (s *Store) ApplyProbeResult(provider string, generation uint64, status ProviderStatus) bool {
	s.mu.Lock()

	stale := generation != s.generation
	activeMatch := s.active != nil && s.active.Provider == provider
	if stale && !activeMatch {
		s.mu.Unlock()
		s.logger.Debug("discarding stale probe result for %s (gen %d != %d)", provider, generation, s.generation)
		return false
	}

	status.HasAPIKey = s.configured[provider]
	status.Available = true
	s.statuses[provider] = status
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return true
}

// Restore applies a previously cached selection when it is still usable:
// known provider, configured (or keyless), and a model that still exists.
func (s *Store) Restore() {
	if s.cache == nil {
		return
	}
	loaded := s.cache.Load()
	if !loaded.Found {
		return
	}

	settings := loaded.Settings
	s.mu.Lock()
	cfg, ok := s.catalog.Provider(settings.Provider)
	if !ok || (cfg.RequiresAPIKey && !s.configured[settings.Provider]) {
		s.mu.Unlock()
		return
	}
	if _, ok := s.catalog.ModelInfo(settings.Provider, settings.Model); !ok {
		s.mu.Unlock()
		return
	}

	params := settings.Parameters
	if result := s.catalog.ValidateParameters(settings.Provider, settings.Model, params); !result.Valid {
		params = cloneParameters(cfg.DefaultParameters)
	}
	s.active = &ActiveConfig{
		Provider:   settings.Provider,
		Model:      settings.Model,
		Parameters: params,
		HasAPIKey:  s.configured[settings.Provider],
	}
	s.commitLocked()
}

// rejectLocked records the error, releases the lock, and returns the error.
// State is untouched; the caller's transition did not happen.
func (s *Store) rejectLocked(msg string) error {
	s.lastErr = msg
	s.mu.Unlock()
	return fmt.Errorf("%s", msg)
}

// commitLocked finalizes a successful transition: clears the error, bumps the
// generation, persists, notifies. Must be called with the lock held; it
// releases it.
func (s *Store) commitLocked() {
	s.lastErr = ""
	s.generation++
	snap := s.snapshotLocked()
	var persist *sessioncache.Settings
	if s.cache != nil && s.active != nil {
		persist = &sessioncache.Settings{
			Provider:   s.active.Provider,
			Model:      s.active.Model,
			Parameters: cloneParameters(s.active.Parameters),
		}
	}
	s.mu.Unlock()

	if persist != nil {
		if result := s.cache.Save(*persist); !result.Success && result.Supported {
			s.logger.Warn("failed to persist session settings: %s", result.Error)
		}
	}
	s.notify(snap)
}

// notify runs outside the lock; a subscriber calling back into the store must
// not deadlock.
func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func cloneParameters(params catalog.ModelParameters) catalog.ModelParameters {
	out := make(catalog.ModelParameters, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
