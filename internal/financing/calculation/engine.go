package calculation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// zeroRateEpsilon is the threshold below which a periodic rate is treated as zero
const zeroRateEpsilon = 1e-12

// FinancingResult holds the figures of a simulation, rounded to cents
type FinancingResult struct {
	DownPaymentAmount float64 `json:"downPaymentAmount"`
	LoanAmount        float64 `json:"loanAmount"`
	MonthlyPayment    float64 `json:"monthlyPayment"`
	TotalPayment      float64 `json:"totalPayment"`
	TotalInterest     float64 `json:"totalInterest"`
}

// Installment is one month of an amortization schedule
type Installment struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Balance   float64 `json:"balance"`
}

// Engine computes fixed-payment (Price) amortization figures
type Engine struct{}

// NewEngine creates a new amortization engine
func NewEngine() *Engine {
	return &Engine{}
}

// Payment returns the unrounded periodic payment for loan L at rate r over n periods
func (e *Engine) Payment(loanAmount float64, periodicRate float64, periods int) (float64, error) {
	if err := checkInputs(loanAmount, periodicRate, periods); err != nil {
		return 0, err
	}

	n := float64(periods)
	if math.Abs(periodicRate) < zeroRateEpsilon {
		return loanAmount / n, nil
	}

	factor := math.Pow(1+periodicRate, n)
	return loanAmount * periodicRate * factor / (factor - 1), nil
}

// Amortize produces the rounded result for a financed amount.
// Totals are taken from the unrounded payment and rounded once at the end.
func (e *Engine) Amortize(loanAmount, downPayment decimal.Decimal, periodicRate float64, periods int) (*FinancingResult, error) {
	if downPayment.IsNegative() {
		return nil, fmt.Errorf("%w: down payment %s is negative", ErrInvalidCalculationInput, downPayment)
	}

	loan := loanAmount.InexactFloat64()
	payment, err := e.Payment(loan, periodicRate, periods)
	if err != nil {
		return nil, err
	}

	paid := payment * float64(periods)
	return &FinancingResult{
		DownPaymentAmount: downPayment.Round(2).InexactFloat64(),
		LoanAmount:        loanAmount.Round(2).InexactFloat64(),
		MonthlyPayment:    roundCents(payment),
		TotalPayment:      roundCents(paid + downPayment.InexactFloat64()),
		TotalInterest:     roundCents(paid - loan),
	}, nil
}

// Schedule lists the first limit installments. A limit of zero or above
// periods returns the whole schedule, in which case the last installment
// absorbs rounding so the balance closes at zero.
func (e *Engine) Schedule(loanAmount decimal.Decimal, periodicRate float64, periods int, limit int) ([]Installment, error) {
	rawPayment, err := e.Payment(loanAmount.InexactFloat64(), periodicRate, periods)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(rawPayment) || math.IsInf(rawPayment, 0) {
		return nil, fmt.Errorf("%w: periodic payment is not finite", ErrNonFiniteResult)
	}

	if limit <= 0 || limit > periods {
		limit = periods
	}

	payment := decimal.NewFromFloat(rawPayment).Round(2)
	rate := decimal.NewFromFloat(periodicRate)
	if math.Abs(periodicRate) < zeroRateEpsilon {
		rate = decimal.Zero
	}

	balance := loanAmount
	installments := make([]Installment, 0, limit)
	for month := 1; month <= limit; month++ {
		interest := balance.Mul(rate).Round(2)
		principal := payment.Sub(interest)
		monthPayment := payment

		if month == periods || principal.GreaterThan(balance) {
			principal = balance
			monthPayment = principal.Add(interest)
		}

		balance = balance.Sub(principal)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		installments = append(installments, Installment{
			Month:     month,
			Payment:   monthPayment.InexactFloat64(),
			Interest:  interest.InexactFloat64(),
			Principal: principal.InexactFloat64(),
			Balance:   balance.InexactFloat64(),
		})
	}

	return installments, nil
}

func checkInputs(loanAmount float64, periodicRate float64, periods int) error {
	switch {
	case math.IsNaN(loanAmount) || math.IsInf(loanAmount, 0):
		return fmt.Errorf("%w: loan amount is not finite", ErrInvalidCalculationInput)
	case math.IsNaN(periodicRate) || math.IsInf(periodicRate, 0):
		return fmt.Errorf("%w: periodic rate is not finite", ErrInvalidCalculationInput)
	case loanAmount <= 0:
		return fmt.Errorf("%w: loan amount must be positive, got %.2f", ErrInvalidCalculationInput, loanAmount)
	case periods <= 0:
		return fmt.Errorf("%w: periods must be positive, got %d", ErrInvalidCalculationInput, periods)
	case periodicRate < 0:
		return fmt.Errorf("%w: periodic rate must not be negative, got %f", ErrInvalidCalculationInput, periodicRate)
	}
	return nil
}

// roundCents rounds finite values to two places and passes the rest through
// so the result validator can flag them.
func roundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
