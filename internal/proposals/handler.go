package proposals

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/financing"
	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
	"simulacred/simulation-portal/simulation-portal-backend/internal/simulations"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/security"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/workflows"
)

// SignRequest is the body of POST /simulations/:id/proposal/sign
type SignRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// Handler handles HTTP requests for proposal documents
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new proposals handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers proposal routes under /simulations/:id
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	proposal := router.Group("/simulations/:id/proposal")
	{
		proposal.GET("", h.downloadProposal)
		proposal.POST("/sign", h.signProposal)
		proposal.GET("/signed", h.signedProposal)
	}
}

// downloadProposal handles GET /api/v1/simulations/:id/proposal
func (h *Handler) downloadProposal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sim, document, err := h.service.Render(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("proposta-%s.pdf", proposalNumber(sim))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, pdfContentType, document)
}

// signProposal handles POST /api/v1/simulations/:id/proposal/sign
func (h *Handler) signProposal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Sign(c.Request.Context(), id, req.Signature)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// signedProposal handles GET /api/v1/simulations/:id/proposal/signed
func (h *Handler) signedProposal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	url, err := h.service.SignedDocumentURL(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, simulations.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "simulation not found"})
	case errors.Is(err, ErrNotSigned):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, security.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflows.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case calculation.CodeOf(err) != "":
		financing.RespondCalculationError(c, err)
	default:
		h.logger.Error("Proposal request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation ID"})
		return uuid.Nil, false
	}
	return id, true
}
