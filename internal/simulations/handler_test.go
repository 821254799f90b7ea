package simulations

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/pkg/workflows"
)

func setupRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	service, _ := newTestService(repo)
	NewHandler(service, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateSimulation(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	router := setupRouter(mockRepo)

	rec := doJSON(router, http.MethodPost, "/api/v1/simulations", `{
		"client_name": "Maria Silva",
		"client_email": "maria@example.com",
		"client_cpf": "529.982.247-25",
		"property_value": "R$ 500.000,00",
		"down_payment_percentage": 20,
		"loan_term_years": 30,
		"interest_rate": 12
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sim Simulation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sim))
	assert.Equal(t, 400000.0, sim.LoanAmount)
	assert.InDelta(t, 4114.45, sim.MonthlyPayment, 0.001)
	assert.Equal(t, workflows.StatusPending, sim.ProposalStatus)
}

func TestHandlerCreateSimulationValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{
			name:     "missing email",
			body:     `{"client_name": "Maria", "property_value": 500000}`,
			contains: "ClientEmail",
		},
		{
			name:     "invalid cpf",
			body:     `{"client_name": "Maria", "client_email": "m@example.com", "client_cpf": "529.982.247-24", "property_value": 500000}`,
			contains: "client_cpf",
		},
		{
			name:     "down payment out of range",
			body:     `{"client_name": "Maria", "client_email": "m@example.com", "property_value": 500000, "down_payment_percentage": 5}`,
			contains: "INVALID_DOWN_PAYMENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(new(MockRepository))
			rec := doJSON(router, http.MethodPost, "/api/v1/simulations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestHandlerGetSimulation(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockRepository)
	mockRepo.On("GetByID", mock.Anything, id).Return(&Simulation{ID: id, ClientName: "Maria"}, nil)
	mockRepo.On("GetByID", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	router := setupRouter(mockRepo)

	rec := doJSON(router, http.MethodGet, "/api/v1/simulations/"+id.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"client_name":"Maria"`)

	rec = doJSON(router, http.MethodGet, "/api/v1/simulations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/simulations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListSimulations(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(f *ListFilters) bool {
		return f.Page == 2 && f.PageSize == 10 && f.Search == "silva"
	})).Return([]*Simulation{}, 12, nil)
	router := setupRouter(mockRepo)

	rec := doJSON(router, http.MethodGet, "/api/v1/simulations?page=2&page_size=10&search=silva", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.TotalCount)
	assert.False(t, resp.HasMore)
	assert.NotNil(t, resp.Simulations)
}

func TestHandlerListSimulationsFailure(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("List", mock.Anything, mock.Anything).Return(nil, 0, errors.New("db down"))
	router := setupRouter(mockRepo)

	rec := doJSON(router, http.MethodGet, "/api/v1/simulations", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlerUpdateProposal(t *testing.T) {
	id := uuid.New()

	t.Run("accept", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", mock.Anything, id).Return(&Simulation{ID: id, ProposalStatus: workflows.StatusPending}, nil)
		mockRepo.On("UpdateProposalStatus", mock.Anything, id, workflows.StatusAccepted, true).Return(nil)
		router := setupRouter(mockRepo)

		rec := doJSON(router, http.MethodPatch, "/api/v1/simulations/"+id.String(), `{"proposal_accepted": true}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"proposal_status":"accepted"`)
	})

	t.Run("missing body field", func(t *testing.T) {
		router := setupRouter(new(MockRepository))
		rec := doJSON(router, http.MethodPatch, "/api/v1/simulations/"+id.String(), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("signed proposal conflicts", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", mock.Anything, id).Return(&Simulation{ID: id, ProposalStatus: workflows.StatusSigned}, nil)
		router := setupRouter(mockRepo)

		rec := doJSON(router, http.MethodPatch, "/api/v1/simulations/"+id.String(), `{"proposal_accepted": false}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandlerGetSchedule(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockRepository)
	mockRepo.On("GetByID", mock.Anything, id).Return(&Simulation{
		ID:                    id,
		PropertyValue:         500000,
		DownPaymentPercentage: 20,
		LoanTermYears:         30,
		InterestRate:          12,
	}, nil)
	router := setupRouter(mockRepo)

	rec := doJSON(router, http.MethodGet, "/api/v1/simulations/"+id.String()+"/schedule?limit=12", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Installments, 12)
	assert.Equal(t, id, resp.SimulationID)
	assert.Equal(t, 1, resp.Installments[0].Month)
}
