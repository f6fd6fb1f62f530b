package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sflstudio/internal/logging"
)

func newTestService(opts ...Option) *Service {
	opts = append(opts, WithLogger(logging.Nop()))
	return NewService(opts...)
}

func TestValidateKeyAccepted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-good" {
			t.Fatalf("expected bearer header, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestService()
	if err := svc.ValidateKey(context.Background(), "openai", "sk-good", server.URL); err != nil {
		t.Fatalf("expected accepted key, got %v", err)
	}
}

func TestValidateKeyRejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := newTestService()
	err := svc.ValidateKey(context.Background(), "openai", "sk-bad", server.URL)
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestAnthropicProbeHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "sk-ant" {
			t.Fatalf("expected x-api-key header, got %q", got)
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Fatal("expected anthropic-version header")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestService()
	if err := svc.ValidateKey(context.Background(), "anthropic", "sk-ant", server.URL); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestGeminiBadRequestMeansInvalidKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "bad" {
			t.Fatalf("expected key query parameter, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	svc := newTestService()
	err := svc.ValidateKey(context.Background(), "google", "bad", server.URL)
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestOllamaProbeNeedsNoKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatal("ollama probe must not send credentials")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestService()
	if err := svc.ValidateKey(context.Background(), "ollama", "", server.URL); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestUnknownProvider(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	err := svc.ValidateKey(context.Background(), "skynet", "k", "")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRateLimitCountsAsValid(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := newTestService()
	if err := svc.ValidateKey(context.Background(), "groq", "k", server.URL); err != nil {
		t.Fatalf("rate limiting proves the key works, got %v", err)
	}
}

func TestVerdictCached(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestService()
	for i := 0; i < 3; i++ {
		if err := svc.ValidateKey(context.Background(), "openai", "sk-x", server.URL); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected a single upstream request, got %d", got)
	}
}

func TestCacheExpires(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestService(WithCacheTTL(time.Millisecond))
	_ = svc.ValidateKey(context.Background(), "openai", "sk-x", server.URL)
	time.Sleep(5 * time.Millisecond)
	_ = svc.ValidateKey(context.Background(), "openai", "sk-x", server.URL)

	if got := hits.Load(); got != 2 {
		t.Fatalf("expected the verdict to expire, got %d hits", got)
	}
}

func TestProbeAll(t *testing.T) {
	t.Parallel()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer bad.Close()

	svc := newTestService()
	results := svc.ProbeAll(context.Background(), []Target{
		{Provider: "openai", Key: "k1", BaseURL: good.URL},
		{Provider: "groq", Key: "k2", BaseURL: bad.URL},
	})

	if results["openai"] != nil {
		t.Fatalf("expected openai ok, got %v", results["openai"])
	}
	if !errors.Is(results["groq"], ErrInvalidKey) {
		t.Fatalf("expected groq invalid, got %v", results["groq"])
	}
}

func TestHealthTransitions(t *testing.T) {
	t.Parallel()

	registry := NewHealthRegistry()
	registry.RecordSuccess("openai", 10*time.Millisecond)
	health, ok := registry.Provider("openai")
	if !ok || health.State != HealthStateHealthy {
		t.Fatalf("expected healthy, got %+v", health)
	}

	err := errors.New("boom")
	for i := 0; i < 3; i++ {
		registry.RecordFailure("openai", err, time.Millisecond)
	}
	health, _ = registry.Provider("openai")
	if health.State != HealthStateDown {
		t.Fatalf("expected down after consecutive failures, got %s", health.State)
	}
	if health.LastError != "boom" {
		t.Fatalf("expected last error recorded, got %q", health.LastError)
	}

	registry.RecordSuccess("openai", time.Millisecond)
	health, _ = registry.Provider("openai")
	if health.State != HealthStateDegraded {
		t.Fatalf("expected degraded while window still holds errors, got %s", health.State)
	}
}

func TestHealthSnapshotSorted(t *testing.T) {
	t.Parallel()

	registry := NewHealthRegistry()
	registry.RecordSuccess("groq", time.Millisecond)
	registry.RecordSuccess("anthropic", time.Millisecond)

	snapshot := registry.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected two entries, got %d", len(snapshot))
	}
	if snapshot[0].Provider != "anthropic" || snapshot[1].Provider != "groq" {
		t.Fatalf("expected sorted providers, got %+v", snapshot)
	}
}
