package financing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
)

// Handler serves stateless financing quotes
type Handler struct {
	calculator *calculation.Calculator
	logger     *zap.Logger
}

// NewHandler creates a new financing handler
func NewHandler(calculator *calculation.Calculator, logger *zap.Logger) *Handler {
	return &Handler{
		calculator: calculator,
		logger:     logger,
	}
}

// RegisterRoutes registers financing routes. Middleware applies to the quote endpoints.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, quoteMiddleware ...gin.HandlerFunc) {
	financing := router.Group("/financing")
	{
		quotes := financing.Group("", quoteMiddleware...)
		quotes.POST("/real-estate/quote", h.quoteRealEstate)
		quotes.POST("/vehicle/quote", h.quoteVehicle)

		financing.GET("/policies", h.getPolicies)
		financing.GET("/real-estate/schedule", h.getRealEstateSchedule)
	}
}

// RealEstateQuoteRequest is the body of a real estate quote
type RealEstateQuoteRequest struct {
	PropertyValue         calculation.CurrencyValue `json:"propertyValue"`
	DownPaymentPercentage *float64                  `json:"downPaymentPercentage"`
	LoanTermYears         *int                      `json:"loanTermYears"`
	InterestRate          *float64                  `json:"interestRate"`
}

// ToFinancingRequest fills unset fields with the product defaults
func (r RealEstateQuoteRequest) ToFinancingRequest() calculation.FinancingRequest {
	return calculation.FinancingRequest{
		Product:            calculation.ProductRealEstate,
		Principal:          r.PropertyValue.Decimal,
		DownPaymentPercent: floatOr(r.DownPaymentPercentage, calculation.RealEstateDefaultDownPaymentPercent),
		TermPeriods:        intOr(r.LoanTermYears, calculation.RealEstateDefaultTermYears),
		AnnualRatePercent:  floatOr(r.InterestRate, calculation.RealEstateDefaultAnnualRatePercent),
	}
}

// VehicleQuoteRequest is the body of a vehicle quote
type VehicleQuoteRequest struct {
	VehicleValue          calculation.CurrencyValue `json:"vehicleValue"`
	DownPaymentPercentage *float64                  `json:"downPaymentPercentage"`
	LoanTermMonths        *int                      `json:"loanTermMonths"`
}

// ToFinancingRequest fills unset fields with the product defaults
func (r VehicleQuoteRequest) ToFinancingRequest() calculation.FinancingRequest {
	return calculation.FinancingRequest{
		Product:            calculation.ProductVehicle,
		Principal:          r.VehicleValue.Decimal,
		DownPaymentPercent: floatOr(r.DownPaymentPercentage, calculation.VehicleDefaultDownPaymentPercent),
		TermPeriods:        intOr(r.LoanTermMonths, calculation.VehicleDefaultTermMonths),
	}
}

// QuoteResponse is the public shape of a quote
type QuoteResponse struct {
	calculation.FinancingResult
	Product  calculation.Product      `json:"product"`
	Term     int                      `json:"term"`
	TermUnit calculation.TermUnit     `json:"termUnit"`
	Rate     calculation.ResolvedRate `json:"rate"`
}

// NewQuoteResponse flattens a quote
func NewQuoteResponse(quote *calculation.Quote) QuoteResponse {
	return QuoteResponse{
		FinancingResult: quote.Result,
		Product:         quote.Request.Product,
		Term:            quote.Request.Term,
		TermUnit:        quote.Request.Policy.TermUnit,
		Rate:            quote.Rate,
	}
}

// PoliciesResponse lists product limits and the vehicle tiers
type PoliciesResponse struct {
	RealEstate   calculation.ProductPolicy `json:"realEstate"`
	Vehicle      calculation.ProductPolicy `json:"vehicle"`
	VehicleRates map[string]float64        `json:"vehicleRates"`
	VehicleTerms []int                     `json:"vehicleTerms"`
	DefaultRate  float64                   `json:"defaultRealEstateRate"`
}

// ScheduleResponse is a quote with its installments
type ScheduleResponse struct {
	Quote        QuoteResponse             `json:"quote"`
	Installments []calculation.Installment `json:"installments"`
}

// =====================================================
// Quote Endpoints
// =====================================================

// quoteRealEstate handles POST /api/v1/financing/real-estate/quote
func (h *Handler) quoteRealEstate(c *gin.Context) {
	var req RealEstateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.calculator.Simulate(c.Request.Context(), req.ToFinancingRequest())
	if err != nil {
		RespondCalculationError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewQuoteResponse(quote))
}

// quoteVehicle handles POST /api/v1/financing/vehicle/quote
func (h *Handler) quoteVehicle(c *gin.Context) {
	var req VehicleQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.calculator.Simulate(c.Request.Context(), req.ToFinancingRequest())
	if err != nil {
		RespondCalculationError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewQuoteResponse(quote))
}

// getPolicies handles GET /api/v1/financing/policies
func (h *Handler) getPolicies(c *gin.Context) {
	table := h.calculator.VehicleRates()
	rates := make(map[string]float64)
	for term, percent := range table.Rates() {
		rates[strconv.Itoa(term)] = percent
	}

	c.JSON(http.StatusOK, PoliciesResponse{
		RealEstate:   calculation.RealEstatePolicy(),
		Vehicle:      calculation.VehiclePolicy(),
		VehicleRates: rates,
		VehicleTerms: table.Terms(),
		DefaultRate:  calculation.RealEstateDefaultAnnualRatePercent,
	})
}

// getRealEstateSchedule handles GET /api/v1/financing/real-estate/schedule
func (h *Handler) getRealEstateSchedule(c *gin.Context) {
	req := RealEstateQuoteRequest{
		PropertyValue: calculation.CurrencyValue{Decimal: calculation.ParseCurrencyAmount(c.Query("propertyValue"))},
	}
	var err error
	if req.DownPaymentPercentage, err = optionalFloat(c, "downPaymentPercentage"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.InterestRate, err = optionalFloat(c, "interestRate"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.LoanTermYears, err = optionalInt(c, "loanTermYears"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := getIntParam(c, "limit", 0)
	quote, installments, err := h.calculator.Schedule(c.Request.Context(), req.ToFinancingRequest(), limit)
	if err != nil {
		RespondCalculationError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScheduleResponse{
		Quote:        NewQuoteResponse(quote),
		Installments: installments,
	})
}

// RespondCalculationError maps calculator errors to HTTP responses.
// Internal failures were already logged by the calculator.
func RespondCalculationError(c *gin.Context, err error) {
	var batch calculation.ValidationErrors
	switch {
	case errors.As(err, &batch):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid financing request",
			"details": batch,
		})
	case errors.Is(err, calculation.ErrUnsupportedTerm):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  calculation.CodeUnsupportedTerm,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to calculate financing",
			"code":  calculation.CodeOf(err),
		})
	}
}

// =====================================================
// Helper Functions
// =====================================================

func getIntParam(c *gin.Context, key string, defaultValue int) int {
	if value := c.Query(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func optionalFloat(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	return &v, nil
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	return &v, nil
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
