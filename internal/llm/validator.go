// Package llm talks to the upstream providers just enough to answer two
// questions: "does this API key work" and "is this provider reachable". The
// actual generation traffic is not routed through this service.
package llm

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"sflstudio/internal/logging"
)

var (
	// ErrInvalidKey means the provider answered and rejected the credential.
	ErrInvalidKey = errors.New("api key rejected by provider")
	// ErrUnknownProvider means no probe is registered for the provider id.
	ErrUnknownProvider = errors.New("unknown provider")
)

const (
	defaultProbeTimeout = 10 * time.Second
	defaultCacheSize    = 128
	defaultCacheTTL     = 5 * time.Minute
)

// probeFunc performs one cheap authenticated request against a provider.
type probeFunc func(ctx context.Context, client *http.Client, key, baseURL string) error

type cachedVerdict struct {
	err      error
	storedAt time.Time
}

// Service validates provider API keys. Verdicts are cached briefly so the
// settings UI re-validating on every visit does not hammer the providers.
type Service struct {
	client *http.Client
	cache  *lru.Cache[string, cachedVerdict]
	ttl    time.Duration
	logger logging.Logger
	probes map[string]probeFunc
	health *HealthRegistry
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient overrides the HTTP client; tests point it at httptest servers.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

func WithLogger(logger logging.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

// WithCacheTTL overrides how long validation verdicts are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func NewService(opts ...Option) *Service {
	cache, _ := lru.New[string, cachedVerdict](defaultCacheSize)
	s := &Service{
		client: &http.Client{Timeout: defaultProbeTimeout},
		cache:  cache,
		ttl:    defaultCacheTTL,
		logger: logging.NewComponentLogger("LLMValidator"),
		health: NewHealthRegistry(),
	}
	s.probes = map[string]probeFunc{
		"openai":     bearerModelsProbe("https://api.openai.com/v1"),
		"openrouter": bearerModelsProbe("https://openrouter.ai/api/v1"),
		"groq":       bearerModelsProbe("https://api.groq.com/openai/v1"),
		"anthropic":  anthropicProbe,
		"google":     geminiProbe,
		"ollama":     ollamaProbe,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Health exposes the registry fed by validation outcomes.
func (s *Service) Health() *HealthRegistry { return s.health }

// ValidateKey probes the provider with the given key. A nil return means the
// key was accepted. Results are cached per provider+key for a short window.
func (s *Service) ValidateKey(ctx context.Context, provider, key, baseURL string) error {
	probe, ok := s.probes[provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	cacheKey := verdictKey(provider, key, baseURL)
	if entry, hit := s.cache.Get(cacheKey); hit && time.Since(entry.storedAt) < s.ttl {
		return entry.err
	}

	start := time.Now()
	err := probe(ctx, s.client, key, baseURL)
	latency := time.Since(start)
	if err != nil {
		s.logger.Warn("key validation for %s failed: %v", provider, err)
		s.health.RecordFailure(provider, err, latency)
	} else {
		s.health.RecordSuccess(provider, latency)
	}

	// Context cancellation is the caller's doing, not a provider verdict.
	if err == nil || !errors.Is(err, context.Canceled) {
		s.cache.Add(cacheKey, cachedVerdict{err: err, storedAt: time.Now()})
	}
	return err
}

// Target names one provider to probe with its stored credential.
type Target struct {
	Provider string
	Key      string
	BaseURL  string
}

// ProbeAll validates every target in parallel and returns the per-provider
// outcome. A failed probe does not cancel the others.
func (s *Service) ProbeAll(ctx context.Context, targets []Target) map[string]error {
	results := make([]error, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
			defer cancel()
			results[i] = s.ValidateKey(probeCtx, target.Provider, target.Key, target.BaseURL)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]error, len(targets))
	for i, target := range targets {
		out[target.Provider] = results[i]
	}
	return out
}

func verdictKey(provider, key, baseURL string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:%x:%s", provider, sum[:8], baseURL)
}
