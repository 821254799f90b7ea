package calculation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculation outcomes reported to the observer
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// FinancingRequest is a raw simulation request.
// TermPeriods is in years for real estate and in months for vehicles.
type FinancingRequest struct {
	Product            Product         `json:"product"`
	Principal          decimal.Decimal `json:"principal"`
	DownPaymentPercent float64         `json:"down_payment_percent"`
	TermPeriods        int             `json:"term_periods"`
	AnnualRatePercent  float64         `json:"annual_rate_percent,omitempty"`
}

// Quote is a validated request together with its rate and result
type Quote struct {
	Request ValidatedRequest `json:"request"`
	Rate    ResolvedRate     `json:"rate"`
	Result  FinancingResult  `json:"result"`
}

// Observer receives the outcome and latency of every simulation
type Observer interface {
	ObserveCalculation(product Product, outcome string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveCalculation(Product, string, time.Duration) {}

// Calculator runs the normalize, resolve, amortize, validate pipeline
type Calculator struct {
	normalizer *Normalizer
	resolver   *RateResolver
	engine     *Engine
	validator  *ResultValidator
	observer   Observer
	logger     *zap.Logger
}

// Option configures a Calculator
type Option func(*Calculator)

// WithObserver sets the observer notified after each simulation
func WithObserver(observer Observer) Option {
	return func(c *Calculator) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithVehicleRates replaces the standard vehicle rate table
func WithVehicleRates(table *RateTable) Option {
	return func(c *Calculator) {
		c.resolver = NewRateResolver(table)
	}
}

// NewCalculator creates a calculator
func NewCalculator(logger *zap.Logger, opts ...Option) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Calculator{
		normalizer: NewNormalizer(),
		resolver:   NewRateResolver(nil),
		engine:     NewEngine(),
		validator:  NewResultValidator(),
		observer:   noopObserver{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VehicleRates returns the vehicle rate table in use
func (c *Calculator) VehicleRates() *RateTable {
	return c.resolver.VehicleRates()
}

// Simulate computes a quote for a request
func (c *Calculator) Simulate(ctx context.Context, req FinancingRequest) (*Quote, error) {
	start := time.Now()
	quote, err := c.simulate(ctx, req)
	c.observer.ObserveCalculation(req.Product, outcomeOf(err), time.Since(start))
	return quote, err
}

func (c *Calculator) simulate(ctx context.Context, req FinancingRequest) (*Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	policy, err := PolicyFor(req.Product)
	if err != nil {
		return nil, c.logFailure(req, err)
	}

	validated, err := c.normalizer.ValidateRequest(policy, req.Principal, req.DownPaymentPercent, req.TermPeriods, req.AnnualRatePercent)
	if err != nil {
		return nil, err
	}

	rate, err := c.resolver.Resolve(req.Product, validated.Term, validated.AnnualRatePercent)
	if err != nil {
		return nil, c.logFailure(req, err)
	}

	downPayment := validated.DownPaymentAmount()
	loanAmount := validated.LoanAmount()

	var result *FinancingResult
	if loanAmount.IsZero() {
		result = &FinancingResult{
			DownPaymentAmount: downPayment.InexactFloat64(),
			TotalPayment:      downPayment.InexactFloat64(),
		}
	} else {
		result, err = c.engine.Amortize(loanAmount, downPayment, rate.PeriodicRate, rate.Periods)
		if err != nil {
			return nil, c.logFailure(req, err)
		}
	}

	if err := c.validator.Validate(result); err != nil {
		return nil, c.logFailure(req, err)
	}

	return &Quote{
		Request: *validated,
		Rate:    rate,
		Result:  *result,
	}, nil
}

// Schedule computes a quote and its first limit installments.
// A fully paid principal has no installments.
func (c *Calculator) Schedule(ctx context.Context, req FinancingRequest, limit int) (*Quote, []Installment, error) {
	quote, err := c.Simulate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if quote.Result.LoanAmount == 0 {
		return quote, []Installment{}, nil
	}

	installments, err := c.engine.Schedule(quote.Request.LoanAmount(), quote.Rate.PeriodicRate, quote.Rate.Periods, limit)
	if err != nil {
		return nil, nil, c.logFailure(req, err)
	}
	return quote, installments, nil
}

// logFailure logs internal failures. Unsupported terms are client errors and stay quiet.
func (c *Calculator) logFailure(req FinancingRequest, err error) error {
	if errors.Is(err, ErrInvalidCalculationInput) || errors.Is(err, ErrNonFiniteResult) {
		c.logger.Error("Financing calculation failed",
			zap.String("product", string(req.Product)),
			zap.String("principal", req.Principal.String()),
			zap.Float64("down_payment_percent", req.DownPaymentPercent),
			zap.Int("term", req.TermPeriods),
			zap.Error(err))
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsValidationError(err), errors.Is(err, ErrUnsupportedTerm):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
