package simulations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/workflows"
)

// Service provides business logic for real estate simulations
type Service struct {
	repo         Repository
	calculator   *calculation.Calculator
	stateMachine *workflows.StateMachine
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewService creates a new simulations service
func NewService(repo Repository, calculator *calculation.Calculator, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:         repo,
		calculator:   calculator,
		stateMachine: workflows.NewStateMachine(),
		publisher:    publisher,
		logger:       logger,
	}
}

// =====================================================
// Simulation Operations
// =====================================================

// Create computes the quote for a request and persists it
func (s *Service) Create(ctx context.Context, req *CreateSimulationRequest) (*Simulation, error) {
	financingReq := calculation.FinancingRequest{
		Product:            calculation.ProductRealEstate,
		Principal:          req.PropertyValue.Decimal,
		DownPaymentPercent: calculation.RealEstateDefaultDownPaymentPercent,
		TermPeriods:        calculation.RealEstateDefaultTermYears,
		AnnualRatePercent:  calculation.RealEstateDefaultAnnualRatePercent,
	}
	if req.DownPaymentPercentage != nil {
		financingReq.DownPaymentPercent = *req.DownPaymentPercentage
	}
	if req.LoanTermYears != nil {
		financingReq.TermPeriods = *req.LoanTermYears
	}
	if req.InterestRate != nil {
		financingReq.AnnualRatePercent = *req.InterestRate
	}

	quote, err := s.calculator.Simulate(ctx, financingReq)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sim := &Simulation{
		ID:                    uuid.New(),
		ClientName:            strings.TrimSpace(req.ClientName),
		ClientEmail:           strings.TrimSpace(req.ClientEmail),
		ClientPhone:           strings.TrimSpace(req.ClientPhone),
		ClientCPF:             strings.TrimSpace(req.ClientCPF),
		PropertyValue:         quote.Request.Principal.InexactFloat64(),
		DownPaymentPercentage: financingReq.DownPaymentPercent,
		DownPaymentAmount:     quote.Result.DownPaymentAmount,
		LoanAmount:            quote.Result.LoanAmount,
		LoanTermYears:         quote.Request.Term,
		InterestRate:          quote.Rate.NominalPercent,
		MonthlyPayment:        quote.Result.MonthlyPayment,
		TotalPayment:          quote.Result.TotalPayment,
		TotalInterest:         quote.Result.TotalInterest,
		ProposalStatus:        workflows.StatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.Create(ctx, sim); err != nil {
		s.logger.Error("Failed to save simulation", zap.Error(err), zap.String("client_email", sim.ClientEmail))
		return nil, fmt.Errorf("failed to save simulation: %w", err)
	}

	s.logger.Info("Simulation created",
		zap.String("simulation_id", sim.ID.String()),
		zap.Float64("property_value", sim.PropertyValue),
		zap.Float64("monthly_payment", sim.MonthlyPayment))
	s.publisher.Publish(ctx, events.SimulationCreated(events.ProductRealEstate, sim.ID, sim.ClientName, sim.PropertyValue))

	return sim, nil
}

// Get retrieves a simulation by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Simulation, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves simulations with pagination
func (s *Service) List(ctx context.Context, filters *ListFilters) (*ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	filters.Search = strings.TrimSpace(filters.Search)

	sims, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if sims == nil {
		sims = []*Simulation{}
	}

	return &ListResponse{
		Simulations: sims,
		TotalCount:  total,
		Page:        filters.Page,
		PageSize:    filters.PageSize,
		HasMore:     filters.Page*filters.PageSize < total,
	}, nil
}

// =====================================================
// Proposal Operations
// =====================================================

// UpdateProposal accepts or reopens a proposal. Signed proposals cannot change.
func (s *Service) UpdateProposal(ctx context.Context, id uuid.UUID, accepted bool) (*Simulation, error) {
	sim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := sim.ProposalStatus
	to, err := s.stateMachine.Transition(from, workflows.StatusForAcceptance(accepted))
	if err != nil {
		return nil, err
	}
	if to == from {
		return sim, nil
	}

	if err := s.repo.UpdateProposalStatus(ctx, id, to, accepted); err != nil {
		s.logger.Error("Failed to update proposal status", zap.Error(err), zap.String("simulation_id", id.String()))
		return nil, err
	}

	sim.ProposalStatus = to
	sim.ProposalAccepted = accepted
	sim.UpdatedAt = time.Now().UTC()

	s.logger.Info("Proposal status updated",
		zap.String("simulation_id", id.String()),
		zap.String("from", from),
		zap.String("to", to))
	s.publisher.Publish(ctx, events.ProposalStatusChanged(id, sim.ClientName, from, to))

	return sim, nil
}

// MarkSigned records the signed document of a proposal
func (s *Service) MarkSigned(ctx context.Context, sim *Simulation, documentKey, fingerprint string, signedAt time.Time) error {
	from := sim.ProposalStatus
	if _, err := s.stateMachine.Transition(from, workflows.StatusSigned); err != nil {
		return err
	}
	if from == workflows.StatusSigned {
		return fmt.Errorf("%w: proposal already signed", workflows.ErrInvalidTransition)
	}

	if err := s.repo.MarkSigned(ctx, sim.ID, documentKey, fingerprint, signedAt); err != nil {
		s.logger.Error("Failed to mark proposal signed", zap.Error(err), zap.String("simulation_id", sim.ID.String()))
		return err
	}

	sim.ProposalStatus = workflows.StatusSigned
	sim.ProposalAccepted = true
	sim.SignedDocumentKey = &documentKey
	sim.SignatureFingerprint = &fingerprint
	sim.SignedAt = &signedAt

	s.publisher.Publish(ctx, events.ProposalStatusChanged(sim.ID, sim.ClientName, from, workflows.StatusSigned))
	return nil
}

// Schedule recomputes the installments of a stored simulation. A limit of zero returns all of them.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID, limit int) (*ScheduleResponse, error) {
	sim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	quote, installments, err := s.calculator.Schedule(ctx, sim.FinancingRequest(), limit)
	if err != nil {
		return nil, err
	}

	return &ScheduleResponse{
		SimulationID: sim.ID,
		Result:       quote.Result,
		Installments: installments,
	}, nil
}
