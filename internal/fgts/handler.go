package fgts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for FGTS leads
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new FGTS handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers FGTS routes. Middleware applies to creation only.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, createMiddleware ...gin.HandlerFunc) {
	group := router.Group("/fgts-simulations")
	{
		group.POST("", append(createMiddleware, h.createLead)...)
		group.GET("", h.listLeads)
		group.GET("/:id", h.getLead)
	}
}

// createLead handles POST /api/v1/fgts-simulations
func (h *Handler) createLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create FGTS simulation"})
		return
	}

	c.JSON(http.StatusCreated, CreateResponse{
		Success: true,
		ID:      lead.ID,
		Message: "FGTS simulation created successfully",
	})
}

// listLeads handles GET /api/v1/fgts-simulations
func (h *Handler) listLeads(c *gin.Context) {
	limit := 0
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			limit = parsed
		}
	}

	leads, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list FGTS simulations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch FGTS simulations"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

// getLead handles GET /api/v1/fgts-simulations/:id
func (h *Handler) getLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation ID"})
		return
	}

	lead, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "FGTS simulation not found"})
			return
		}
		h.logger.Error("Failed to get FGTS simulation", zap.Error(err), zap.String("simulation_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch FGTS simulation"})
		return
	}
	c.JSON(http.StatusOK, lead)
}
