package providerstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sflstudio/internal/catalog"
	"sflstudio/internal/logging"
	"sflstudio/internal/sessioncache"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append(opts, WithLogger(logging.Nop()))
	return New(catalog.Default(), opts...)
}

func configuredStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store := newTestStore(t, opts...)
	store.MarkConfigured([]string{"openai", "anthropic", "google", "groq"})
	return store
}

func TestSetProviderUnknown(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	err := store.SetProvider("imaginary")
	require.Error(t, err)
	assert.Equal(t, "unknown provider: imaginary", store.Err())
	assert.Nil(t, store.Snapshot().Active)
}

func TestSetProviderUnconfigured(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	err := store.SetProvider("openai")
	require.Error(t, err)
	assert.Equal(t, "Provider openai is not configured", store.Err())
	assert.Nil(t, store.Snapshot().Active, "active config must keep its previous value")
}

func TestKeylessProviderSelectableWithoutConfiguration(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.SetProvider("ollama"))

	active := store.Snapshot().Active
	require.NotNil(t, active)
	assert.Equal(t, "ollama", active.Provider)
	assert.Equal(t, "llama3.1", active.Model)
}

func TestSetProviderUsesFirstModelAndDefaults(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("openai"))

	active := store.Snapshot().Active
	require.NotNil(t, active)
	assert.Equal(t, "gpt-4o", active.Model)
	assert.Equal(t, 1.0, active.Parameters["temperature"])
	assert.Empty(t, active.APIKey, "raw key must never appear in store state")
	assert.True(t, active.HasAPIKey)
}

func TestResetOnSwitchDropsCustomization(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("openai"))
	require.NoError(t, store.SetParameters(catalog.ModelParameters{"temperature": 0.1}))

	require.NoError(t, store.SetProvider("google"))
	active := store.Snapshot().Active

	cfg, _ := catalog.Default().Provider("google")
	assert.Equal(t, cfg.DefaultParameters, active.Parameters, "no leakage from the previous provider")
}

func TestSetModelResetsParameters(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("openai"))
	require.NoError(t, store.SetParameters(catalog.ModelParameters{"temperature": 0.2}))

	require.NoError(t, store.SetModel("gpt-4o-mini"))
	active := store.Snapshot().Active
	assert.Equal(t, "gpt-4o-mini", active.Model)
	assert.Equal(t, 1.0, active.Parameters["temperature"])
}

func TestSetModelWrongProvider(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("openai"))

	err := store.SetModel("gemini-2.5-flash")
	require.Error(t, err)
	assert.Equal(t, "model gemini-2.5-flash not found for provider openai", store.Err())
	assert.Equal(t, "gpt-4o", store.Snapshot().Active.Model)
}

func TestSetModelWithoutActiveProvider(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	assert.Error(t, store.SetModel("gpt-4o"))
}

func TestSetParametersRejectionPreservesState(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("google"))
	before := store.Snapshot().Active

	err := store.SetParameters(catalog.ModelParameters{"temperature": 3})
	require.Error(t, err)
	assert.Contains(t, store.Err(), "temperature must be between 0 and 2")

	after := store.Snapshot().Active
	assert.Equal(t, before.Parameters, after.Parameters)
}

func TestSetParametersMerges(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("google"))
	require.NoError(t, store.SetParameters(catalog.ModelParameters{"temperature": 0.4}))

	active := store.Snapshot().Active
	assert.Equal(t, 0.4, active.Parameters["temperature"])
	// keys not in the partial update survive
	assert.Contains(t, active.Parameters, "top_p")
}

func TestSetParametersUnknownKeyPassesThrough(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("google"))
	require.NoError(t, store.SetParameters(catalog.ModelParameters{"thinking_budget": 1024}))
	assert.Equal(t, 1024, store.Snapshot().Active.Parameters["thinking_budget"])
}

func TestCommitClearsPreviousError(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("google"))
	require.Error(t, store.SetParameters(catalog.ModelParameters{"temperature": 9}))
	require.NotEmpty(t, store.Err())

	require.NoError(t, store.SetParameters(catalog.ModelParameters{"temperature": 0.5}))
	assert.Empty(t, store.Err())
}

func TestSubscribeNotifyUnsubscribe(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	var seen []Snapshot
	unsubscribe := store.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap)
	})

	require.NoError(t, store.SetProvider("openai"))
	require.Len(t, seen, 1)
	assert.Equal(t, "openai", seen[0].Active.Provider)

	unsubscribe()
	require.NoError(t, store.SetModel("gpt-4o-mini"))
	assert.Len(t, seen, 1)
}

func TestCommitPersistsSanitizedSnapshotToCache(t *testing.T) {
	t.Parallel()

	cache := sessioncache.New(sessioncache.NewMemoryStorage(), sessioncache.WithLogger(logging.Nop()))
	store := configuredStore(t, WithSessionCache(cache))

	require.NoError(t, store.SetProvider("google"))
	require.NoError(t, store.SetParameters(catalog.ModelParameters{"temperature": 0.6}))

	loaded := cache.Load()
	require.True(t, loaded.Found)
	assert.Equal(t, "google", loaded.Settings.Provider)
	assert.Equal(t, "gemini-2.5-flash", loaded.Settings.Model)
	assert.Equal(t, 0.6, loaded.Settings.Parameters["temperature"])
}

func TestRestoreFromCache(t *testing.T) {
	t.Parallel()

	cache := sessioncache.New(sessioncache.NewMemoryStorage(), sessioncache.WithLogger(logging.Nop()))
	cache.Save(sessioncache.Settings{
		Provider:   "google",
		Model:      "gemini-2.5-pro",
		Parameters: catalog.ModelParameters{"temperature": 0.3},
	})

	store := configuredStore(t, WithSessionCache(cache))
	store.Restore()

	active := store.Snapshot().Active
	require.NotNil(t, active)
	assert.Equal(t, "gemini-2.5-pro", active.Model)
	assert.Equal(t, 0.3, active.Parameters["temperature"])
}

func TestRestoreSkipsUnconfiguredProvider(t *testing.T) {
	t.Parallel()

	cache := sessioncache.New(sessioncache.NewMemoryStorage(), sessioncache.WithLogger(logging.Nop()))
	cache.Save(sessioncache.Settings{Provider: "openai", Model: "gpt-4o"})

	store := newTestStore(t, WithSessionCache(cache))
	store.Restore()
	assert.Nil(t, store.Snapshot().Active)
}

func TestRestoreSkipsVanishedModel(t *testing.T) {
	t.Parallel()

	cache := sessioncache.New(sessioncache.NewMemoryStorage(), sessioncache.WithLogger(logging.Nop()))
	cache.Save(sessioncache.Settings{Provider: "google", Model: "gemini-1.0-retired"})

	store := configuredStore(t, WithSessionCache(cache))
	store.Restore()
	assert.Nil(t, store.Snapshot().Active)
}

func TestSetAPIKeyStatusRefreshesOnlyActiveFlag(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("openai"))

	store.SetAPIKeyStatus("anthropic", false)
	assert.True(t, store.Snapshot().Active.HasAPIKey, "inactive provider update leaves active flag alone")

	store.SetAPIKeyStatus("openai", false)
	assert.False(t, store.Snapshot().Active.HasAPIKey)
}

func TestStaleProbeResultDiscardedAfterSwitch(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("openai"))
	gen := store.Generation()

	// User switches away while the openai probe is in flight.
	require.NoError(t, store.SetProvider("google"))

	applied := store.ApplyProbeResult("openai", gen, ProviderStatus{Valid: true})
	assert.False(t, applied)
	assert.False(t, store.Snapshot().Statuses["openai"].Valid)
}

func TestFreshProbeResultApplied(t *testing.T) {
	t.Parallel()

	store := configuredStore(t)
	require.NoError(t, store.SetProvider("openai"))
	gen := store.Generation()

	applied := store.ApplyProbeResult("openai", gen, ProviderStatus{Valid: true})
	assert.True(t, applied)
	assert.True(t, store.Snapshot().Statuses["openai"].Valid)
}
