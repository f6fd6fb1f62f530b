package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sflstudio/internal/prompts"
)

// HandleCreatePrompt stores a new prompt record.
func (h *Handlers) HandleCreatePrompt(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}

	// A prompt bound to a provider/model must carry a parameter set that
	// model accepts; unbound prompts skip the check.
	if req.Provider != "" && len(req.Parameters) > 0 {
		if result := h.catalog.ValidateParameters(req.Provider, req.Model, req.Parameters); !result.Valid {
			c.JSON(http.StatusUnprocessableEntity, APIResponse{Success: false, Error: result.Errors[0]})
			return
		}
	}

	created, err := h.prompts.Create(prompts.Record{
		Title:      req.Title,
		Body:       req.Body,
		SFL:        req.SFL,
		Provider:   req.Provider,
		Model:      req.Model,
		Parameters: req.Parameters,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: created})
}

// HandleListPrompts lists records, optionally filtered by ?q=.
func (h *Handlers) HandleListPrompts(c *gin.Context) {
	records, err := h.prompts.Search(c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: records})
}

// HandleGetPrompt fetches one record.
func (h *Handlers) HandleGetPrompt(c *gin.Context) {
	record, err := h.prompts.Get(c.Param("id"))
	if err != nil {
		h.promptError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: record})
}

// HandleUpdatePrompt updates a record's mutable fields.
func (h *Handlers) HandleUpdatePrompt(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}

	if req.Provider != "" && len(req.Parameters) > 0 {
		if result := h.catalog.ValidateParameters(req.Provider, req.Model, req.Parameters); !result.Valid {
			c.JSON(http.StatusUnprocessableEntity, APIResponse{Success: false, Error: result.Errors[0]})
			return
		}
	}

	updated, err := h.prompts.Update(c.Param("id"), prompts.Record{
		Title:      req.Title,
		Body:       req.Body,
		SFL:        req.SFL,
		Provider:   req.Provider,
		Model:      req.Model,
		Parameters: req.Parameters,
	})
	if err != nil {
		h.promptError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: updated})
}

// HandleDeletePrompt removes a record.
func (h *Handlers) HandleDeletePrompt(c *gin.Context) {
	if err := h.prompts.Delete(c.Param("id")); err != nil {
		h.promptError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

func (h *Handlers) promptError(c *gin.Context, err error) {
	if errors.Is(err, prompts.ErrNotFound) {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "prompt not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
}
