package admin

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the admin dashboard
type Handler struct {
	aggregator *Aggregator
	exporter   *Exporter
	logger     *zap.Logger
}

// NewHandler creates a new admin handler
func NewHandler(aggregator *Aggregator, exporter *Exporter, logger *zap.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		exporter:   exporter,
		logger:     logger,
	}
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	{
		admin.GET("/stats", h.getStats)
		admin.GET("/simulations/export", h.exportSimulations)
		admin.GET("/cache", h.getCacheStats)
	}
}

// getStats handles GET /api/v1/admin/stats
func (h *Handler) getStats(c *gin.Context) {
	period, ok := ParsePeriod(c.Query("period"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be one of all, daily, weekly, monthly, quarterly, yearly"})
		return
	}

	stats, err := h.aggregator.Stats(c.Request.Context(), period)
	if err != nil {
		h.logger.Error("Failed to fetch admin statistics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch admin statistics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// exportSimulations handles GET /api/v1/admin/simulations/export
func (h *Handler) exportSimulations(c *gin.Context) {
	product := c.Query("product")
	format := c.DefaultQuery("format", FormatCSV)

	if err := ValidateRequest(product, format); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// buffered so a failed query still gets a JSON error
	var buf bytes.Buffer
	if err := h.exporter.Export(c.Request.Context(), &buf, product, format); err != nil {
		if errors.Is(err, ErrUnknownProduct) || errors.Is(err, ErrUnknownFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Export failed", zap.Error(err), zap.String("product", product), zap.String("format", format))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export simulations"})
		return
	}

	filename := Filename(product, format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, ContentType(format), buf.Bytes())
}

// getCacheStats handles GET /api/v1/admin/cache
func (h *Handler) getCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregator.CacheStats(c.Request.Context()))
}
