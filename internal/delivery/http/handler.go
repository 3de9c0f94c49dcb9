package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	comparisonService *usecase.ComparisonService
}

// NewHandler creates a new HTTP handler. A nil service makes the
// comparison endpoints answer 501.
func NewHandler(comparisonService *usecase.ComparisonService) *Handler {
	return &Handler{
		comparisonService: comparisonService,
	}
}

// CompareRequest is the body of the comparison endpoints
type CompareRequest struct {
	Catalogs []domain.StoreCatalog `json:"catalogs" binding:"required,min=1,dive"`
}

// CompareResponse is the JSON comparison result
type CompareResponse struct {
	Stores  []string                  `json:"stores"`
	Records []domain.ComparisonRecord `json:"records"`
	Groups  int                       `json:"groups"`
}

// ScoreRequest is the body of the pair scoring endpoint
type ScoreRequest struct {
	A domain.CatalogEntry `json:"a"`
	B domain.CatalogEntry `json:"b"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricelens-backend",
		"version": "1.0.0",
	})
}

// Compare handles POST /api/v1/comparisons
func (h *Handler) Compare(c *gin.Context) {
	records, ok := h.compare(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, CompareResponse{
		Stores:  h.comparisonService.Stores(),
		Records: records,
		Groups:  len(records),
	})
}

// CompareCSV handles POST /api/v1/comparisons/csv
func (h *Handler) CompareCSV(c *gin.Context) {
	records, ok := h.compare(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="comparison.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.comparisonService.Emitter().WriteCSV(c.Writer, records); err != nil {
		log.Printf("[HANDLER] Failed to write CSV: %v", err)
	}
}

// Score handles POST /api/v1/match/score
func (h *Handler) Score(c *gin.Context) {
	if h.comparisonService == nil {
		notConfigured(c)
		return
	}

	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: both entries need a name",
		})
		return
	}

	c.JSON(http.StatusOK, h.comparisonService.Explain(req.A, req.B))
}

// compare binds the request and runs the comparison, writing the error
// response itself when it returns false
func (h *Handler) compare(c *gin.Context) ([]domain.ComparisonRecord, bool) {
	if h.comparisonService == nil {
		notConfigured(c)
		return nil, false
	}

	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: catalogs with a store are required",
		})
		return nil, false
	}

	records, err := h.comparisonService.Compare(c.Request.Context(), req.Catalogs)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}

	if onlySales, _ := strconv.ParseBool(c.Query("onlySales")); onlySales {
		records = usecase.FilterOnSale(records)
	}

	return records, true
}

// handleError maps domain errors to HTTP status codes
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownStore):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  err.Error(),
			"stores": h.comparisonService.Stores(),
		})
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidCatalog):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Request cancelled",
		})
	default:
		log.Printf("[HANDLER] Comparison failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func notConfigured(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "Comparison service not configured",
	})
}
