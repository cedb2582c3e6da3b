package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/market-ar/market/internal/models"
	"github.com/market-ar/market/internal/selection"
)

type selectionResponse struct {
	Selected     *models.Listing   `json:"selected"`
	Filters      selection.Filters `json:"filters"`
	RecentlySeen []models.Listing  `json:"recentlySeen"`
}

// putSelectionRequest replaces the filter pair. A nil listingId leaves the
// selected listing unchanged.
type putSelectionRequest struct {
	ListingID *int64            `json:"listingId"`
	Category  *models.Category  `json:"category"`
	Condition *models.Condition `json:"condition"`
}

func (h *Handler) selectionSnapshot() selectionResponse {
	resp := selectionResponse{
		Filters:      h.selection.Filters(),
		RecentlySeen: h.selection.RecentlySeen(),
	}
	if l, ok := h.selection.Selected(); ok {
		resp.Selected = &l
	}
	return resp
}

// GET /api/selection
func (h *Handler) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.selectionSnapshot())
}

// PUT /api/selection
func (h *Handler) PutSelection(c *gin.Context) {
	var req putSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	if req.ListingID != nil {
		listing, err := h.store.GetByID(c.Request.Context(), *req.ListingID)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		h.selection.SelectListing(*listing)
	}
	h.selection.SelectCategory(req.Category)
	h.selection.SelectCondition(req.Condition)

	c.JSON(http.StatusOK, h.selectionSnapshot())
}

// GET /api/selection/recent
func (h *Handler) GetRecent(c *gin.Context) {
	c.JSON(http.StatusOK, h.selection.RecentlySeen())
}

// DELETE /api/selection/recent
func (h *Handler) ClearRecent(c *gin.Context) {
	h.selection.ClearRecentlySeen()
	c.Status(http.StatusNoContent)
}

// DELETE /api/selection/recent/:id
func (h *Handler) DeleteRecent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.selection.RemoveRecentlySeen(id) {
		writeError(c, http.StatusNotFound, "listing not in recently seen")
		return
	}
	c.Status(http.StatusNoContent)
}
