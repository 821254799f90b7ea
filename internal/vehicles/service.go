package vehicles

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/formatters"
)

// Service provides business logic for vehicle simulations
type Service struct {
	repo       Repository
	calculator *calculation.Calculator
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewService creates a new vehicles service
func NewService(repo Repository, calculator *calculation.Calculator, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:       repo,
		calculator: calculator,
		publisher:  publisher,
		logger:     logger,
	}
}

// Create quotes the vehicle financing and stores the simulation
func (s *Service) Create(ctx context.Context, req *CreateVehicleSimulationRequest) (*CreateResponse, error) {
	financingReq := calculation.FinancingRequest{
		Product:            calculation.ProductVehicle,
		Principal:          req.VehicleData.VehicleValue.Decimal,
		DownPaymentPercent: calculation.VehicleDefaultDownPaymentPercent,
		TermPeriods:        calculation.VehicleDefaultTermMonths,
	}
	if fd := req.FinancingData; fd.DownPaymentPercentage != nil && *fd.DownPaymentPercentage != 0 {
		financingReq.DownPaymentPercent = *fd.DownPaymentPercentage
	}
	if fd := req.FinancingData; fd.LoanTermMonths != nil && *fd.LoanTermMonths != 0 {
		financingReq.TermPeriods = *fd.LoanTermMonths
	}

	quote, err := s.calculator.Simulate(ctx, financingReq)
	if err != nil {
		return nil, err
	}

	sim := &VehicleSimulation{
		ID:                    uuid.New(),
		ClientName:            strings.TrimSpace(req.PersonalData.Name),
		ClientEmail:           strings.TrimSpace(req.PersonalData.Email),
		ClientPhone:           formatters.FormatPhone(req.PersonalData.Phone),
		ClientCPF:             formatters.FormatCPF(req.PersonalData.CPF),
		ClientCEP:             optional(req.VehicleData.CEP),
		VehicleType:           req.VehicleData.VehicleType,
		KnowsModel:            req.VehicleData.KnowsModel,
		VehicleYear:           parseYear(req.VehicleData.Year),
		VehicleBrand:          optional(req.VehicleData.Brand),
		VehicleModel:          optional(req.VehicleData.Model),
		VehicleValue:          quote.Request.Principal.InexactFloat64(),
		PurchaseTimeline:      optional(req.SellerData.Timeline),
		SellerType:            optional(req.SellerData.SellerType),
		DownPaymentPercentage: financingReq.DownPaymentPercent,
		DownPaymentAmount:     quote.Result.DownPaymentAmount,
		LoanAmount:            quote.Result.LoanAmount,
		LoanTermMonths:        quote.Request.Term,
		InterestRate:          quote.Rate.NominalPercent,
		MonthlyPayment:        quote.Result.MonthlyPayment,
		TotalPayment:          quote.Result.TotalPayment,
		TotalInterest:         quote.Result.TotalInterest,
	}

	if err := s.repo.Create(ctx, sim); err != nil {
		s.logger.Error("Failed to save vehicle simulation", zap.Error(err), zap.String("client_email", sim.ClientEmail))
		return nil, err
	}

	s.logger.Info("Vehicle simulation created",
		zap.String("simulation_id", sim.ID.String()),
		zap.Float64("vehicle_value", sim.VehicleValue),
		zap.Int("loan_term_months", sim.LoanTermMonths),
		zap.Float64("monthly_payment", sim.MonthlyPayment))
	s.publisher.Publish(ctx, events.SimulationCreated(events.ProductVehicle, sim.ID, sim.ClientName, sim.VehicleValue))

	return &CreateResponse{
		Success:           true,
		ID:                sim.ID,
		CalculationResult: quote.Result,
		MonthlyRate:       quote.Rate.NominalPercent,
	}, nil
}

// Get retrieves a vehicle simulation by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*VehicleSimulation, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the most recent simulations, newest first
func (s *Service) List(ctx context.Context) ([]VehicleSimulation, error) {
	sims, err := s.repo.ListRecent(ctx, MaxListSize)
	if err != nil {
		return nil, err
	}
	if sims == nil {
		sims = []VehicleSimulation{}
	}
	return sims, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// parseYear accepts "2021" and model-year forms such as "2021/2022", keeping the first year
func parseYear(value string) *int {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, "/-"); i > 0 {
		value = value[:i]
	}
	year, err := strconv.Atoi(value)
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}
