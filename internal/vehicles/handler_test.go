package vehicles

import (
	"encoding/json"
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

	"simulacred/simulation-portal/simulation-portal-backend/internal/middleware"
)

func setupRouter(t *testing.T, repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

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

const validBody = `{
	"personalData": {"name": "Carlos Souza", "email": "carlos@example.com", "phone": "(11) 98765-4321", "cpf": "529.982.247-25"},
	"vehicleData": {"vehicleType": "carro", "knowsModel": false, "cep": "01310-100", "vehicleValue": "R$ 50.000,00"},
	"sellerData": {"timeline": "rapido", "sellerType": "particular"},
	"financingData": {"downPaymentPercentage": 20, "loanTermMonths": 24}
}`

func TestHandlerCreateSimulation(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	router := setupRouter(t, mockRepo)

	rec := doJSON(router, http.MethodPost, "/api/v1/vehicle-simulations", validBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, 40000.0, resp.CalculationResult.LoanAmount)
	assert.InDelta(t, 57317.10, resp.CalculationResult.TotalPayment, 0.001)
}

func TestHandlerCreateSimulationValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{
			name:   "invalid cpf",
			body:   strings.Replace(validBody, "529.982.247-25", "529.982.247-24", 1),
			status: http.StatusBadRequest,
		},
		{
			name:   "missing phone",
			body:   strings.Replace(validBody, `"phone": "(11) 98765-4321", `, "", 1),
			status: http.StatusBadRequest,
		},
		{
			name:   "down payment above the vehicle ceiling",
			body:   strings.Replace(validBody, `"downPaymentPercentage": 20`, `"downPaymentPercentage": 100.01`, 1),
			status: http.StatusBadRequest,
		},
		{
			name:   "down payment below the vehicle minimum",
			body:   strings.Replace(validBody, `"downPaymentPercentage": 20`, `"downPaymentPercentage": 4.99`, 1),
			status: http.StatusBadRequest,
		},
		{
			name:   "unsupported term",
			body:   strings.Replace(validBody, `"loanTermMonths": 24`, `"loanTermMonths": 30`, 1),
			status: http.StatusBadRequest,
		},
		{
			name:   "missing vehicle value",
			body:   strings.Replace(validBody, `, "vehicleValue": "R$ 50.000,00"`, "", 1),
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed json",
			body:   `{"personalData":`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(t, new(MockRepository))
			rec := doJSON(router, http.MethodPost, "/api/v1/vehicle-simulations", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlerCreateSimulationDownPaymentCeiling(t *testing.T) {
	for _, down := range []string{"95.5", "96"} {
		t.Run(down, func(t *testing.T) {
			mockRepo := new(MockRepository)
			mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			router := setupRouter(t, mockRepo)

			body := strings.Replace(validBody, `"downPaymentPercentage": 20`, `"downPaymentPercentage": `+down, 1)
			rec := doJSON(router, http.MethodPost, "/api/v1/vehicle-simulations", body)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		})
	}

	mockRepo := new(MockRepository)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	router := setupRouter(t, mockRepo)

	body := strings.Replace(validBody, `"downPaymentPercentage": 20`, `"downPaymentPercentage": 100`, 1)
	rec := doJSON(router, http.MethodPost, "/api/v1/vehicle-simulations", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.CalculationResult.LoanAmount)
	assert.Equal(t, 50000.0, resp.CalculationResult.TotalPayment)
}

func TestHandlerGetSimulation(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockRepository)
	mockRepo.On("GetByID", mock.Anything, id).Return(&VehicleSimulation{ID: id, VehicleType: "moto"}, nil)
	mockRepo.On("GetByID", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	router := setupRouter(t, mockRepo)

	rec := doJSON(router, http.MethodGet, "/api/v1/vehicle-simulations/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"vehicle_type":"moto"`)

	rec = doJSON(router, http.MethodGet, "/api/v1/vehicle-simulations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/vehicle-simulations/42", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListSimulations(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("ListRecent", mock.Anything, MaxListSize).Return([]VehicleSimulation{{ID: uuid.New()}, {ID: uuid.New()}}, nil)
	router := setupRouter(t, mockRepo)

	rec := doJSON(router, http.MethodGet, "/api/v1/vehicle-simulations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sims []VehicleSimulation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sims))
	assert.Len(t, sims, 2)
}
