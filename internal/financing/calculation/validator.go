package calculation

import (
	"fmt"
	"math"
	"strings"
)

// Field labels shown to clients when a result is rejected
const (
	LabelMonthlyPayment = "Parcela mensal"
	LabelTotalPayment   = "Valor total"
	LabelTotalInterest  = "Total de juros"
	LabelDownPayment    = "Valor da entrada"
	LabelLoanAmount     = "Valor financiado"
)

// ResultValidator rejects results that are not safe to show or persist
type ResultValidator struct{}

// NewResultValidator creates a new result validator
func NewResultValidator() *ResultValidator {
	return &ResultValidator{}
}

// Validate checks that every figure is finite and non-negative
func (v *ResultValidator) Validate(result *FinancingResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is missing", ErrNonFiniteResult)
	}

	fields := []struct {
		label string
		value float64
	}{
		{LabelMonthlyPayment, result.MonthlyPayment},
		{LabelTotalPayment, result.TotalPayment},
		{LabelTotalInterest, result.TotalInterest},
		{LabelDownPayment, result.DownPaymentAmount},
		{LabelLoanAmount, result.LoanAmount},
	}

	var invalid []string
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			invalid = append(invalid, f.label)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("%w: %s", ErrNonFiniteResult, strings.Join(invalid, ", "))
	}
	return nil
}
