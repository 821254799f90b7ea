package simulations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/workflows"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, sim *Simulation) error {
	args := m.Called(ctx, sim)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Simulation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Simulation), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filters *ListFilters) ([]*Simulation, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*Simulation), args.Int(1), args.Error(2)
}

func (m *MockRepository) UpdateProposalStatus(ctx context.Context, id uuid.UUID, status string, accepted bool) error {
	args := m.Called(ctx, id, status, accepted)
	return args.Error(0)
}

func (m *MockRepository) MarkSigned(ctx context.Context, id uuid.UUID, documentKey, fingerprint string, signedAt time.Time) error {
	args := m.Called(ctx, id, documentKey, fingerprint, signedAt)
	return args.Error(0)
}

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, e events.Event) {
	r.events = append(r.events, e)
}

func newTestService(repo Repository) (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewService(repo, calculation.NewCalculator(zap.NewNop()), pub, zap.NewNop()), pub
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestServiceCreate(t *testing.T) {
	mockRepo := new(MockRepository)
	service, pub := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*simulations.Simulation")).Return(nil)

	req := &CreateSimulationRequest{
		ClientName:            " Maria Silva ",
		ClientEmail:           "maria@example.com",
		PropertyValue:         calculation.NewCurrencyValue(500000),
		DownPaymentPercentage: floatPtr(20),
		LoanTermYears:         intPtr(30),
		InterestRate:          floatPtr(12),
	}

	sim, err := service.Create(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, sim.ID)
	assert.Equal(t, "Maria Silva", sim.ClientName)
	assert.Equal(t, 500000.0, sim.PropertyValue)
	assert.Equal(t, 100000.0, sim.DownPaymentAmount)
	assert.Equal(t, 400000.0, sim.LoanAmount)
	assert.InDelta(t, 4114.45, sim.MonthlyPayment, 0.001)
	assert.Equal(t, 12.0, sim.InterestRate)
	assert.Equal(t, workflows.StatusPending, sim.ProposalStatus)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeSimulationCreated, pub.events[0].Type)
	assert.Equal(t, events.ProductRealEstate, pub.events[0].Product)
	mockRepo.AssertExpectations(t)
}

func TestServiceCreateDefaults(t *testing.T) {
	mockRepo := new(MockRepository)
	service, _ := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.Anything).Return(nil)

	sim, err := service.Create(ctx, &CreateSimulationRequest{
		ClientName:    "João",
		ClientEmail:   "joao@example.com",
		PropertyValue: calculation.NewCurrencyValue(300000),
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, sim.DownPaymentPercentage)
	assert.Equal(t, 30, sim.LoanTermYears)
	assert.Equal(t, 8.5, sim.InterestRate)
}

func TestServiceCreateFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid financing", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service, pub := newTestService(mockRepo)

		_, err := service.Create(ctx, &CreateSimulationRequest{ClientName: "A", ClientEmail: "a@b.com"})
		assert.ErrorIs(t, err, calculation.ErrInvalidPrincipal)
		assert.Empty(t, pub.events)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service, pub := newTestService(mockRepo)
		mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("connection refused"))

		_, err := service.Create(ctx, &CreateSimulationRequest{
			ClientName: "A", ClientEmail: "a@b.com", PropertyValue: calculation.NewCurrencyValue(300000),
		})
		assert.Error(t, err)
		assert.Empty(t, pub.events)
	})
}

func TestServiceList(t *testing.T) {
	mockRepo := new(MockRepository)
	service, _ := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("List", ctx, mock.MatchedBy(func(f *ListFilters) bool {
		return f.Page == 1 && f.PageSize == 20 && f.Search == "maria"
	})).Return([]*Simulation{{ID: uuid.New()}}, 45, nil)

	resp, err := service.List(ctx, &ListFilters{Page: 0, PageSize: 500, Search: " maria "})
	require.NoError(t, err)
	assert.Len(t, resp.Simulations, 1)
	assert.Equal(t, 45, resp.TotalCount)
	assert.True(t, resp.HasMore)
	mockRepo.AssertExpectations(t)
}

func TestServiceUpdateProposal(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("pending to accepted", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service, pub := newTestService(mockRepo)

		mockRepo.On("GetByID", ctx, id).Return(&Simulation{ID: id, ProposalStatus: workflows.StatusPending}, nil)
		mockRepo.On("UpdateProposalStatus", ctx, id, workflows.StatusAccepted, true).Return(nil)

		sim, err := service.UpdateProposal(ctx, id, true)
		require.NoError(t, err)
		assert.Equal(t, workflows.StatusAccepted, sim.ProposalStatus)
		assert.True(t, sim.ProposalAccepted)
		require.Len(t, pub.events, 1)
		assert.Equal(t, workflows.StatusAccepted, pub.events[0].ToStatus)
		mockRepo.AssertExpectations(t)
	})

	t.Run("no-op when unchanged", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service, pub := newTestService(mockRepo)

		mockRepo.On("GetByID", ctx, id).Return(&Simulation{ID: id, ProposalStatus: workflows.StatusAccepted, ProposalAccepted: true}, nil)

		sim, err := service.UpdateProposal(ctx, id, true)
		require.NoError(t, err)
		assert.Equal(t, workflows.StatusAccepted, sim.ProposalStatus)
		assert.Empty(t, pub.events)
		mockRepo.AssertNotCalled(t, "UpdateProposalStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signed is terminal", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service, _ := newTestService(mockRepo)

		mockRepo.On("GetByID", ctx, id).Return(&Simulation{ID: id, ProposalStatus: workflows.StatusSigned}, nil)

		_, err := service.UpdateProposal(ctx, id, false)
		assert.ErrorIs(t, err, workflows.ErrInvalidTransition)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service, _ := newTestService(mockRepo)

		mockRepo.On("GetByID", ctx, id).Return(nil, ErrNotFound)

		_, err := service.UpdateProposal(ctx, id, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestServiceMarkSigned(t *testing.T) {
	ctx := context.Background()
	signedAt := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

	mockRepo := new(MockRepository)
	service, pub := newTestService(mockRepo)

	sim := &Simulation{ID: uuid.New(), ProposalStatus: workflows.StatusAccepted}
	mockRepo.On("MarkSigned", ctx, sim.ID, "proposals/key.pdf", "abc", signedAt).Return(nil)

	require.NoError(t, service.MarkSigned(ctx, sim, "proposals/key.pdf", "abc", signedAt))
	assert.Equal(t, workflows.StatusSigned, sim.ProposalStatus)
	assert.Equal(t, "proposals/key.pdf", *sim.SignedDocumentKey)
	require.Len(t, pub.events, 1)
	assert.Equal(t, workflows.StatusAccepted, pub.events[0].FromStatus)

	err := service.MarkSigned(ctx, sim, "proposals/other.pdf", "def", signedAt)
	assert.ErrorIs(t, err, workflows.ErrInvalidTransition)
	mockRepo.AssertNumberOfCalls(t, "MarkSigned", 1)
}

func TestServiceSchedule(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	mockRepo := new(MockRepository)
	service, _ := newTestService(mockRepo)

	mockRepo.On("GetByID", ctx, id).Return(&Simulation{
		ID:                    id,
		PropertyValue:         500000,
		DownPaymentPercentage: 20,
		LoanTermYears:         30,
		InterestRate:          12,
	}, nil)

	schedule, err := service.Schedule(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, schedule.Installments, 360)
	assert.InDelta(t, 0, schedule.Installments[359].Balance, 0.01)
	assert.Equal(t, 400000.0, schedule.Result.LoanAmount)
}

func TestServiceScheduleMatchesStoredQuote(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	service, _ := newTestService(mockRepo)

	var stored *Simulation
	mockRepo.On("Create", ctx, mock.AnythingOfType("*simulations.Simulation")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*Simulation) }).
		Return(nil)

	sim, err := service.Create(ctx, &CreateSimulationRequest{
		ClientName:            "Ana",
		ClientEmail:           "ana@example.com",
		PropertyValue:         calculation.CurrencyValue{Decimal: decimal.RequireFromString("437219.987")},
		DownPaymentPercentage: floatPtr(33.333),
		LoanTermYears:         intPtr(27),
		InterestRate:          floatPtr(9.8765),
	})
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, 437219.99, stored.PropertyValue)
	assert.Equal(t, 33.333, stored.DownPaymentPercentage)
	assert.Equal(t, 9.8765, stored.InterestRate)

	mockRepo.On("GetByID", ctx, sim.ID).Return(stored, nil)

	schedule, err := service.Schedule(ctx, sim.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, sim.DownPaymentAmount, schedule.Result.DownPaymentAmount)
	assert.Equal(t, sim.LoanAmount, schedule.Result.LoanAmount)
	assert.Equal(t, sim.MonthlyPayment, schedule.Result.MonthlyPayment)
	assert.Equal(t, sim.TotalPayment, schedule.Result.TotalPayment)
	assert.Equal(t, sim.TotalInterest, schedule.Result.TotalInterest)
	assert.Len(t, schedule.Installments, 27*12)
}
