package vehicles

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/financing"
	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
)

// Handler handles HTTP requests for vehicle simulations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new vehicles handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers vehicle simulation routes. Middleware applies to creation only.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, createMiddleware ...gin.HandlerFunc) {
	group := router.Group("/vehicle-simulations")
	{
		group.POST("", append(createMiddleware, h.createSimulation)...)
		group.GET("", h.listSimulations)
		group.GET("/:id", h.getSimulation)
	}
}

// createSimulation handles POST /api/v1/vehicle-simulations
func (h *Handler) createSimulation(c *gin.Context) {
	var req CreateVehicleSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		if calculation.CodeOf(err) != "" {
			financing.RespondCalculationError(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to save vehicle simulation"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listSimulations handles GET /api/v1/vehicle-simulations
func (h *Handler) listSimulations(c *gin.Context) {
	sims, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list vehicle simulations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list vehicle simulations"})
		return
	}
	c.JSON(http.StatusOK, sims)
}

// getSimulation handles GET /api/v1/vehicle-simulations/:id
func (h *Handler) getSimulation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation ID"})
		return
	}

	sim, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle simulation not found"})
			return
		}
		h.logger.Error("Failed to get vehicle simulation", zap.Error(err), zap.String("simulation_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get vehicle simulation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"simulation": sim})
}
