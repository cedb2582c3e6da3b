package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type suggestRequest struct {
	Description string `json:"description" binding:"required"`
}

// POST /api/suggest
func (h *Handler) Suggest(c *gin.Context) {
	if h.appraiser == nil {
		writeError(c, http.StatusServiceUnavailable, "suggestions are not configured")
		return
	}

	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "description is required")
		return
	}

	suggestion, err := h.appraiser.Suggest(c.Request.Context(), req.Description, "")
	if err != nil {
		writeError(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
