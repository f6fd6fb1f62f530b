package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleGetSession returns the store snapshot plus session cache state.
func (h *Handlers) HandleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: gin.H{
		"session": h.store.Snapshot(),
		"cache":   h.cache.CacheInfo(),
	}})
}

// HandleUpdateSession applies store transitions in provider, model, parameter
// order. A rejected transition stops the sequence and surfaces the store's
// error with 422; earlier transitions in the same request stay committed,
// mirroring how the UI issues them one interaction at a time.
func (h *Handlers) HandleUpdateSession(c *gin.Context) {
	var req SessionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}

	if req.Provider != "" {
		if err := h.store.SetProvider(req.Provider); err != nil {
			c.JSON(http.StatusUnprocessableEntity, APIResponse{Success: false, Error: err.Error()})
			return
		}
	}
	if req.Model != "" {
		if err := h.store.SetModel(req.Model); err != nil {
			c.JSON(http.StatusUnprocessableEntity, APIResponse{Success: false, Error: err.Error()})
			return
		}
	}
	if len(req.Parameters) > 0 {
		if err := h.store.SetParameters(req.Parameters); err != nil {
			c.JSON(http.StatusUnprocessableEntity, APIResponse{Success: false, Error: err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.store.Snapshot()})
}

// HandleClearSession wipes the cached selection.
func (h *Handlers) HandleClearSession(c *gin.Context) {
	result := h.cache.Clear()
	c.JSON(http.StatusOK, APIResponse{Success: result.Success || !result.Supported, Data: result})
}
