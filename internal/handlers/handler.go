package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/market-ar/market/internal/appraisal"
	"github.com/market-ar/market/internal/listings"
	"github.com/market-ar/market/internal/selection"
	"github.com/market-ar/market/internal/storage"
)

// Appraiser proposes listing fields from a description
type Appraiser interface {
	Suggest(ctx context.Context, description, imagePath string) (*appraisal.Suggestion, error)
}

type Handler struct {
	store     listings.Store
	query     *listings.QueryService
	selection *selection.State
	appraiser Appraiser
}

// New creates the API handler. appraiser may be nil, in which case the
// suggestion endpoint reports 503.
func New(store listings.Store, sel *selection.State, appraiser Appraiser) *Handler {
	return &Handler{
		store:     store,
		query:     listings.NewQueryService(store),
		selection: sel,
		appraiser: appraiser,
	}
}

// Router builds a gin engine with every route registered
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/listings", h.ListListings)
	rg.GET("/listings/:id", h.GetListing)
	rg.DELETE("/listings/:id", h.DeleteListing)

	rg.GET("/selection", h.GetSelection)
	rg.PUT("/selection", h.PutSelection)
	rg.GET("/selection/recent", h.GetRecent)
	rg.DELETE("/selection/recent", h.ClearRecent)
	rg.DELETE("/selection/recent/:id", h.DeleteRecent)

	rg.POST("/suggest", h.Suggest)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Handled request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func writeError(c *gin.Context, code int, message string) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "path", c.Request.URL.Path)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// writeStoreError maps store errors onto HTTP status codes
func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(c, http.StatusNotFound, "listing not found")
		return
	}
	writeError(c, http.StatusInternalServerError, err.Error())
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid listing id")
		return 0, false
	}
	return id, true
}
