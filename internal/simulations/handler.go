package simulations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/financing"
	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/formatters"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/workflows"
)

// Handler handles HTTP requests for real estate simulations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new simulations handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers simulation routes. Middleware applies to creation only.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, createMiddleware ...gin.HandlerFunc) {
	simulations := router.Group("/simulations")
	{
		simulations.POST("", append(createMiddleware, h.createSimulation)...)
		simulations.GET("", h.listSimulations)
		simulations.GET("/:id", h.getSimulation)
		simulations.PATCH("/:id", h.updateProposal)
		simulations.GET("/:id/schedule", h.getSchedule)
	}
}

// createSimulation handles POST /api/v1/simulations
func (h *Handler) createSimulation(c *gin.Context) {
	var req CreateSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ClientCPF != "" && !formatters.ValidateCPF(req.ClientCPF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_cpf"})
		return
	}

	sim, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sim)
}

// listSimulations handles GET /api/v1/simulations
func (h *Handler) listSimulations(c *gin.Context) {
	filters := &ListFilters{
		Page:     getIntParam(c, "page", 1),
		PageSize: getIntParam(c, "page_size", 20),
		Search:   c.Query("search"),
	}

	response, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("Failed to list simulations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list simulations"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// getSimulation handles GET /api/v1/simulations/:id
func (h *Handler) getSimulation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sim, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sim)
}

// updateProposal handles PATCH /api/v1/simulations/:id
func (h *Handler) updateProposal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sim, err := h.service.UpdateProposal(c.Request.Context(), id, *req.ProposalAccepted)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sim)
}

// getSchedule handles GET /api/v1/simulations/:id/schedule
func (h *Handler) getSchedule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	schedule, err := h.service.Schedule(c.Request.Context(), id, getIntParam(c, "limit", 0))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "simulation not found"})
	case errors.Is(err, workflows.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case calculation.CodeOf(err) != "":
		financing.RespondCalculationError(c, err)
	default:
		h.logger.Error("Simulation request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// =====================================================
// Helper Functions
// =====================================================

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation ID"})
		return uuid.Nil, false
	}
	return id, true
}

func getIntParam(c *gin.Context, key string, defaultValue int) int {
	if value := c.Query(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
