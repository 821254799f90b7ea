package fgts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/formatters"
)

// Service provides business logic for FGTS leads
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewService creates a new FGTS service
func NewService(repo Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Create stores a new lead
func (s *Service) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	lead := &Lead{
		ID:           uuid.New(),
		NomeCompleto: strings.TrimSpace(req.NomeCompleto),
		CPF:          formatters.FormatCPF(req.CPF),
		RG:           strings.TrimSpace(req.RG),
		Telefone:     formatters.FormatPhone(req.Telefone),
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		s.logger.Error("Failed to save FGTS simulation", zap.Error(err))
		return nil, err
	}

	s.logger.Info("FGTS simulation created", zap.String("simulation_id", lead.ID.String()))
	s.publisher.Publish(ctx, events.SimulationCreated(events.ProductFGTS, lead.ID, lead.NomeCompleto, 0))

	return lead, nil
}

// Get retrieves a lead by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns leads newest first
func (s *Service) List(ctx context.Context, limit int) ([]Lead, error) {
	leads, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []Lead{}
	}
	return leads, nil
}
