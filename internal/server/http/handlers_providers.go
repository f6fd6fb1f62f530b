package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sflstudio/internal/llm"
	"sflstudio/internal/providerstore"
)

// HandleAvailableProviders lists every provider the catalog knows about.
func (h *Handlers) HandleAvailableProviders(c *gin.Context) {
	providers := h.catalog.Providers()
	summaries := make([]ProviderSummary, 0, len(providers))
	for _, p := range providers {
		summaries = append(summaries, ProviderSummary{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			RequiresAPIKey: p.RequiresAPIKey,
			Features:       p.Features,
			ModelCount:     len(p.Models),
		})
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: summaries})
}

// HandleProviderStatus reports per-provider readiness from the store.
func (h *Handlers) HandleProviderStatus(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.store.Snapshot().Statuses})
}

// HandleProviderConfig returns the full catalog entry for one provider.
func (h *Handlers) HandleProviderConfig(c *gin.Context) {
	provider := c.Param("provider")
	cfg, ok := h.catalog.Provider(provider)
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "unknown provider: " + provider})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: cfg})
}

// HandleProviderPresets returns the parameter presets tagged for a provider.
func (h *Handlers) HandleProviderPresets(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.catalog.ProviderPresets(c.Param("provider"))})
}

// HandleProviderHealth probes every configured provider in parallel and
// returns the health registry snapshot.
func (h *Handlers) HandleProviderHealth(c *gin.Context) {
	targets := make([]llm.Target, 0)
	for _, provider := range h.keys.Configured() {
		key, baseURL, ok := h.keys.Lookup(provider)
		if !ok {
			continue
		}
		targets = append(targets, llm.Target{
			Provider: provider,
			Key:      key,
			BaseURL:  h.baseURL(provider, baseURL),
		})
	}
	// Keyless providers are probed for plain reachability.
	for _, p := range h.catalog.Providers() {
		if !p.RequiresAPIKey {
			targets = append(targets, llm.Target{Provider: p.ID, BaseURL: h.baseURL(p.ID, "")})
		}
	}

	generation := h.store.Generation()
	results := h.validator.ProbeAll(c.Request.Context(), targets)
	for provider, err := range results {
		status := providerstore.ProviderStatus{
			Valid:       err == nil,
			LastChecked: time.Now(),
		}
		if err != nil {
			status.Error = err.Error()
		}
		h.store.ApplyProbeResult(provider, generation, status)
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.validator.Health().Snapshot()})
}

// HandleValidateKey runs a live probe with a candidate key. The key is not
// stored and never echoed back.
func (h *Handlers) HandleValidateKey(c *gin.Context) {
	var req ValidateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}

	err := h.validator.ValidateKey(c.Request.Context(), req.Provider, req.APIKey, h.baseURL(req.Provider, req.BaseURL))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, APIResponse{Success: true})
	case errors.Is(err, llm.ErrUnknownProvider):
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: err.Error()})
	case errors.Is(err, llm.ErrInvalidKey):
		c.JSON(http.StatusOK, APIResponse{Success: false, Error: err.Error()})
	default:
		// Unreachable provider is a probe outcome, not a server fault.
		c.JSON(http.StatusOK, APIResponse{Success: false, Error: err.Error()})
	}
}

// HandleSaveKey stores a provider credential server-side and updates the
// store's configured bookkeeping.
func (h *Handlers) HandleSaveKey(c *gin.Context) {
	provider := c.Param("provider")
	if _, ok := h.catalog.Provider(provider); !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "unknown provider: " + provider})
		return
	}

	var req SaveKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}
	if err := h.keys.Save(provider, req.APIKey, req.BaseURL); err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}

	h.store.SetAPIKeyStatus(provider, true)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: gin.H{"provider": provider, "configured": true}})
}

// HandleDeleteKey removes a stored credential.
func (h *Handlers) HandleDeleteKey(c *gin.Context) {
	provider := c.Param("provider")
	if err := h.keys.Delete(provider); err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	h.store.SetAPIKeyStatus(provider, false)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: gin.H{"provider": provider, "configured": false}})
}

// HandleConfiguredProviders lists providers with stored keys. Keys themselves
// never appear in any response.
func (h *Handlers) HandleConfiguredProviders(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.keys.Configured()})
}

// HandleValidateParameters exposes the resolver to the settings UI.
func (h *Handlers) HandleValidateParameters(c *gin.Context) {
	var req ValidateParametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}
	result := h.catalog.ValidateParameters(req.Provider, req.Model, req.Parameters)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: result})
}

// baseURL resolves the probe endpoint: explicit request value, then the
// operator's per-provider override, then the provider default (empty string).
func (h *Handlers) baseURL(provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return h.baseURLOverrides[provider]
}
