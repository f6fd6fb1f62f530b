package http

import (
	"time"

	"sflstudio/internal/catalog"
	"sflstudio/internal/prompts"
)

// APIResponse is the uniform JSON envelope for every endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// ProviderSummary is the lightweight listing entry for the provider picker.
type ProviderSummary struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RequiresAPIKey bool     `json:"requiresApiKey"`
	Features       []string `json:"features"`
	ModelCount     int      `json:"modelCount"`
}

// ValidateKeyRequest carries a candidate credential for a live probe. The key
// is used for the probe only; persisting it is a separate, explicit call.
type ValidateKeyRequest struct {
	Provider string `json:"provider" binding:"required"`
	APIKey   string `json:"apiKey"`
	BaseURL  string `json:"baseUrl"`
}

// SaveKeyRequest stores a credential in the server-side keystore.
type SaveKeyRequest struct {
	APIKey  string `json:"apiKey" binding:"required"`
	BaseURL string `json:"baseUrl"`
}

// ValidateParametersRequest asks the resolver to check a parameter set.
type ValidateParametersRequest struct {
	Provider   string                  `json:"provider" binding:"required"`
	Model      string                  `json:"model" binding:"required"`
	Parameters catalog.ModelParameters `json:"parameters"`
}

// SessionUpdateRequest applies store transitions. Fields are optional and
// applied in provider, model, parameters order.
type SessionUpdateRequest struct {
	Provider   string                  `json:"provider"`
	Model      string                  `json:"model"`
	Parameters catalog.ModelParameters `json:"parameters"`
}

// PromptRequest is the CRUD payload for prompt records.
type PromptRequest struct {
	Title      string                  `json:"title"`
	Body       string                  `json:"body"`
	SFL        prompts.SFLMetadata     `json:"sfl"`
	Provider   string                  `json:"provider"`
	Model      string                  `json:"model"`
	Parameters catalog.ModelParameters `json:"parameters"`
}
