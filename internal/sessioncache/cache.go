// Package sessioncache persists the user's last provider/model/parameter
// selection across reloads of the studio UI. It is best-effort by design:
// entries expire after thirty minutes, secret-like fields are stripped before
// write, and any corrupt or stale entry is deleted rather than repaired. When
// the backing storage is unavailable every operation degrades to a well-formed
// "unsupported" result instead of an error.
package sessioncache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sflstudio/internal/catalog"
	"sflstudio/internal/logging"
)

const (
	// FormatVersion is compared exactly on load; any mismatch purges the
	// entry. There are no migrations for ephemeral state.
	FormatVersion = "1.0"

	storageKey = "sfl-session-settings"

	// TTL bounds how long a saved selection stays live.
	TTL = 30 * time.Minute

	// futureTolerance guards against clock skew between writes and reads.
	futureTolerance = 60 * time.Second
)

// Settings is the persisted selection. Parameters never contain secrets;
// Save strips them.
type Settings struct {
	Provider   string                  `json:"provider"`
	Model      string                  `json:"model"`
	Parameters catalog.ModelParameters `json:"parameters"`
	Timestamp  time.Time               `json:"timestamp"`
}

type envelope struct {
	Version   string    `json:"version"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is the uniform outcome type. Operations never return Go errors to
// the caller; failures land in Error with Success=false, and an unavailable
// backend is reported through Supported=false.
type Result struct {
	Success   bool   `json:"success"`
	Supported bool   `json:"supported"`
	Error     string `json:"error,omitempty"`
}

// LoadResult carries the settings when a live entry exists. Found=false with
// Success=true means "no data", which is not an error.
type LoadResult struct {
	Result
	Found    bool      `json:"found"`
	Settings *Settings `json:"settings,omitempty"`
}

// Info is a read-only snapshot of cache state.
type Info struct {
	Supported bool   `json:"supported"`
	Present   bool   `json:"present"`
	AgeMS     int64  `json:"ageMs"`
	Version   string `json:"version,omitempty"`
}

// Cache wraps a Storage with the versioned envelope format.
type Cache struct {
	storage Storage
	logger  logging.Logger
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source; tests use it to age entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger overrides the component logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Cache) { c.logger = logging.OrNop(logger) }
}

func New(storage Storage, opts ...Option) *Cache {
	c := &Cache{
		storage: storage,
		logger:  logging.NewComponentLogger("SessionCache"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// secret-like parameter names stripped on save
var secretFragments = []string{"apikey", "api_key", "api-key", "token", "secret", "password", "credential"}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range secretFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// sanitizeParameters copies the bag without secret-like keys.
func sanitizeParameters(params catalog.ModelParameters) catalog.ModelParameters {
	out := make(catalog.ModelParameters, len(params))
	for key, value := range params {
		if isSecretKey(key) {
			continue
		}
		out[key] = value
	}
	return out
}

// Save writes the selection under the fixed storage key, stamping the current
// time. Storage failures are absorbed into the result.
func (c *Cache) Save(settings Settings) Result {
	if !c.storage.Available() {
		return Result{Supported: false}
	}

	settings.Parameters = sanitizeParameters(settings.Parameters)
	settings.Timestamp = c.now()

	data, err := json.Marshal(envelope{
		Version:   FormatVersion,
		Settings:  settings,
		CreatedAt: settings.Timestamp,
	})
	if err != nil {
		return Result{Supported: true, Error: fmt.Sprintf("encode session settings: %v", err)}
	}
	if err := c.storage.Set(storageKey, string(data)); err != nil {
		c.logger.Warn("session cache write failed: %v", err)
		return Result{Supported: true, Error: fmt.Sprintf("write session settings: %v", err)}
	}
	return Result{Success: true, Supported: true}
}

// Load returns the cached selection when it is present, well-formed, the
// right version, and inside the freshness window. Anything else clears the
// entry so the next load starts clean.
func (c *Cache) Load() LoadResult {
	if !c.storage.Available() {
		return LoadResult{Result: Result{Supported: false}}
	}

	raw, ok := c.storage.Get(storageKey)
	if !ok {
		return LoadResult{Result: Result{Success: true, Supported: true}}
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		c.logger.Warn("purging corrupt session cache entry: %v", err)
		c.storage.Remove(storageKey)
		return LoadResult{Result: Result{Success: true, Supported: true}}
	}
	if env.Version != FormatVersion {
		c.logger.Info("purging session cache entry with version %q", env.Version)
		c.storage.Remove(storageKey)
		return LoadResult{Result: Result{Success: true, Supported: true}}
	}
	if env.Settings.Provider == "" || env.Settings.Model == "" || env.Settings.Timestamp.IsZero() {
		c.logger.Warn("purging session cache entry with missing fields")
		c.storage.Remove(storageKey)
		return LoadResult{Result: Result{Success: true, Supported: true}}
	}

	now := c.now()
	age := now.Sub(env.Settings.Timestamp)
	if age < -futureTolerance || age > TTL {
		c.storage.Remove(storageKey)
		return LoadResult{Result: Result{Success: true, Supported: true}}
	}

	settings := env.Settings
	if settings.Parameters == nil {
		settings.Parameters = catalog.ModelParameters{}
	}
	return LoadResult{
		Result:   Result{Success: true, Supported: true},
		Found:    true,
		Settings: &settings,
	}
}

// Clear deletes the entry. Idempotent; succeeds even when nothing existed.
func (c *Cache) Clear() Result {
	if !c.storage.Available() {
		return Result{Supported: false}
	}
	c.storage.Remove(storageKey)
	return Result{Success: true, Supported: true}
}

// CacheInfo reports cache state without mutating it, even for expired entries.
func (c *Cache) CacheInfo() Info {
	if !c.storage.Available() {
		return Info{Supported: false}
	}

	raw, ok := c.storage.Get(storageKey)
	if !ok {
		return Info{Supported: true}
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Info{Supported: true, Present: true}
	}
	return Info{
		Supported: true,
		Present:   true,
		AgeMS:     c.now().Sub(env.CreatedAt).Milliseconds(),
		Version:   env.Version,
	}
}

// UpdateParameters merges new parameters into an existing entry. It refuses
// to create an entry implicitly: without a prior save there is nothing to
// attach the provider/model context to.
func (c *Cache) UpdateParameters(params catalog.ModelParameters) Result {
	loaded := c.Load()
	if !loaded.Supported {
		return Result{Supported: false}
	}
	if !loaded.Found {
		return Result{Supported: true, Error: "no cached session settings to update"}
	}

	settings := *loaded.Settings
	merged := make(catalog.ModelParameters, len(settings.Parameters)+len(params))
	for k, v := range settings.Parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	settings.Parameters = merged
	return c.Save(settings)
}
