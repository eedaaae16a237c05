// consume.go implements the simulated consumption endpoint. The HTTP status
// of the response mirrors the pipeline outcome (200, 401, 403, 429, 502),
// and the body always carries all six step results.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/consumption"
)

// ConsumeHandlers handles consumption simulation.
type ConsumeHandlers struct {
	validator *consumption.Validator
}

// NewConsumeHandlers creates a ConsumeHandlers instance.
func NewConsumeHandlers(v *consumption.Validator) *ConsumeHandlers {
	return &ConsumeHandlers{validator: v}
}

// ConsumeRequest presents an API key secret against a target service.
type ConsumeRequest struct {
	APIKey    string `json:"api_key" binding:"required"`
	ServiceID string `json:"service_id" binding:"required"`
}

// Simulate runs the validation pipeline for one call.
// POST /api/v1/consume
func (h *ConsumeHandlers) Simulate(c *gin.Context) {
	var req ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "api_key and service_id are required")
		return
	}

	resp, err := h.validator.Simulate(c.Request.Context(), req.APIKey, req.ServiceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(resp.StatusCode, resp)
}
