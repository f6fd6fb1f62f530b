package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// bearerModelsProbe covers the OpenAI-compatible family: a GET on /models
// with a Bearer token is the cheapest authenticated call they all support.
func bearerModelsProbe(defaultBase string) probeFunc {
	return func(ctx context.Context, client *http.Client, key, baseURL string) error {
		base := pickBase(baseURL, defaultBase)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/models", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+key)
		return checkResponse(client, req)
	}
}

func anthropicProbe(ctx context.Context, client *http.Client, key, baseURL string) error {
	base := pickBase(baseURL, "https://api.anthropic.com")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", "2023-06-01")
	return checkResponse(client, req)
}

func geminiProbe(ctx context.Context, client *http.Client, key, baseURL string) error {
	base := pickBase(baseURL, "https://generativelanguage.googleapis.com/v1beta")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/models?key="+key, nil)
	if err != nil {
		return err
	}
	err = checkResponse(client, req)
	// Gemini answers a malformed or revoked key with 400 rather than 401.
	if err != nil && strings.Contains(err.Error(), "status 400") {
		return ErrInvalidKey
	}
	return err
}

// ollamaProbe needs no credential; reaching the daemon's tag list is enough.
func ollamaProbe(ctx context.Context, client *http.Client, _ string, baseURL string) error {
	base := pickBase(baseURL, "http://localhost:11434")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/tags", nil)
	if err != nil {
		return err
	}
	return checkResponse(client, req)
}

func pickBase(baseURL, fallback string) string {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = fallback
	}
	return strings.TrimRight(base, "/")
}

func checkResponse(client *http.Client, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider unreachable: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrInvalidKey
	case resp.StatusCode == http.StatusTooManyRequests:
		// Rate limiting proves the key reached an authenticated path.
		return nil
	default:
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
}
