package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/market-ar/market/internal/listings"
	"github.com/market-ar/market/internal/models"
)

// GET /api/listings?category=...&condition=...&sort=asc|desc
func (h *Handler) ListListings(c *gin.Context) {
	var q listings.Query

	if v := c.Query("category"); v != "" {
		category, err := models.ParseCategory(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		q.Category = &category
	}
	if v := c.Query("condition"); v != "" {
		condition, err := models.ParseCondition(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		q.Condition = &condition
	}
	sort, err := listings.ParseSortOrder(c.Query("sort"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	q.Sort = sort

	list, err := h.query.Browse(c.Request.Context(), q)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []models.Listing{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/listings/:id marks the listing as selected and recently seen
func (h *Handler) GetListing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	listing, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	h.selection.SelectListing(*listing)
	h.selection.AddRecentlySeen(*listing)
	c.JSON(http.StatusOK, listing)
}

// DELETE /api/listings/:id
func (h *Handler) DeleteListing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	listing, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), *listing); err != nil {
		writeStoreError(c, err)
		return
	}

	h.selection.RemoveRecentlySeen(id)
	h.selection.ClearSelected(id)
	c.Status(http.StatusNoContent)
}
