package calculation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseCurrencyAmount reads a Brazilian formatted amount such as "R$ 1.234,56".
// Empty or unreadable input yields zero.
func ParseCurrencyAmount(raw string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if r == 'R' || r == '$' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return decimal.Zero
	}

	if parts := strings.Split(cleaned, ","); len(parts) == 2 {
		fraction := parts[1]
		if len(fraction) > 2 {
			fraction = fraction[:2]
		}
		cleaned = strings.ReplaceAll(parts[0], ".", "") + "." + fraction
	} else {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	amount, err := decimal.NewFromString(numericPrefix(cleaned))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// numericPrefix keeps the longest leading run that reads as a decimal number
func numericPrefix(s string) string {
	end := 0
	seenDot := false
	for i, r := range s {
		switch {
		case r == '-' && i == 0:
		case r == '.' && !seenDot:
			seenDot = true
		case r >= '0' && r <= '9':
		default:
			return strings.TrimSuffix(s[:end], ".")
		}
		end = i + 1
	}
	return strings.TrimSuffix(s[:end], ".")
}

// CurrencyValue accepts either a JSON number or a formatted currency string
type CurrencyValue struct {
	decimal.Decimal
}

// NewCurrencyValue wraps a float amount
func NewCurrencyValue(amount float64) CurrencyValue {
	return CurrencyValue{Decimal: decimal.NewFromFloat(amount)}
}

func (c *CurrencyValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		c.Decimal = decimal.Zero
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to decode currency string: %w", err)
		}
		c.Decimal = ParseCurrencyAmount(raw)
		return nil
	}

	amount, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("failed to decode currency number: %w", err)
	}
	c.Decimal = amount
	return nil
}

func (c CurrencyValue) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal.StringFixed(2)), nil
}

// ValidatedRequest is a request that passed the product policy checks
type ValidatedRequest struct {
	Product             Product         `json:"product"`
	Principal           decimal.Decimal `json:"principal"`
	DownPaymentFraction float64         `json:"down_payment_fraction"`
	Term                int             `json:"term"`
	AnnualRatePercent   float64         `json:"annual_rate_percent,omitempty"`
	Policy              ProductPolicy   `json:"policy"`
}

// DownPaymentPercent returns the fraction as a percentage
func (v ValidatedRequest) DownPaymentPercent() float64 {
	return v.DownPaymentFraction * 100
}

// DownPaymentAmount returns principal times the fraction, rounded to cents
func (v ValidatedRequest) DownPaymentAmount() decimal.Decimal {
	return v.Principal.Mul(decimal.NewFromFloat(v.DownPaymentFraction)).Round(2)
}

// LoanAmount returns the financed amount
func (v ValidatedRequest) LoanAmount() decimal.Decimal {
	return v.Principal.Sub(v.DownPaymentAmount())
}

// Normalizer checks raw inputs against a product policy
type Normalizer struct{}

// NewNormalizer creates a new normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// ValidateRequest collects every policy violation instead of stopping at the first.
// The principal is rounded to cents before any check. annualRatePercent is only
// read when the policy accepts a caller supplied rate.
func (n *Normalizer) ValidateRequest(policy ProductPolicy, principal decimal.Decimal, downPaymentPercent float64, term int, annualRatePercent float64) (*ValidatedRequest, error) {
	var errs ValidationErrors

	principal = principal.Round(2)
	maxDownPayment := policy.MaxDownPaymentPercent
	if maxDownPayment <= 0 {
		maxDownPayment = MaxDownPaymentPercent
	}

	if !principal.IsPositive() {
		errs = append(errs, newValidationError(ErrInvalidPrincipal, CodeInvalidPrincipal,
			"principal", "principal must be greater than zero"))
	} else if policy.MaxPrincipal > 0 && principal.GreaterThan(decimal.NewFromFloat(policy.MaxPrincipal)) {
		errs = append(errs, newValidationError(ErrInvalidPrincipal, CodeInvalidPrincipal,
			"principal", fmt.Sprintf("principal must not exceed %.2f", policy.MaxPrincipal)))
	}

	downPaymentOK := true
	switch {
	case math.IsNaN(downPaymentPercent) || math.IsInf(downPaymentPercent, 0):
		downPaymentOK = false
		errs = append(errs, newValidationError(ErrInvalidDownPayment, CodeInvalidDownPayment,
			"down_payment_percent", "down payment must be a finite percentage"))
	case downPaymentPercent < policy.MinDownPaymentPercent || downPaymentPercent > maxDownPayment:
		downPaymentOK = false
		errs = append(errs, newValidationError(ErrInvalidDownPayment, CodeInvalidDownPayment,
			"down_payment_percent", fmt.Sprintf("down payment must be between %.0f%% and %.0f%%",
				policy.MinDownPaymentPercent, maxDownPayment)))
	}

	if term <= 0 {
		errs = append(errs, newValidationError(ErrInvalidTerm, CodeInvalidTerm,
			"term", "term must be greater than zero"))
	} else if policy.MaxTerm > 0 && term > policy.MaxTerm {
		errs = append(errs, newValidationError(ErrInvalidTerm, CodeInvalidTerm,
			"term", fmt.Sprintf("term must not exceed %d %s", policy.MaxTerm, policy.TermUnit)))
	}

	if policy.MaxAnnualRatePercent > 0 {
		switch {
		case math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0):
			errs = append(errs, newValidationError(ErrInvalidRate, CodeInvalidRate,
				"annual_rate_percent", "interest rate must be a finite percentage"))
		case annualRatePercent < 0 || annualRatePercent > policy.MaxAnnualRatePercent:
			errs = append(errs, newValidationError(ErrInvalidRate, CodeInvalidRate,
				"annual_rate_percent", fmt.Sprintf("interest rate must be between 0%% and %.0f%% a year",
					policy.MaxAnnualRatePercent)))
		}
	} else {
		annualRatePercent = 0
	}

	req := &ValidatedRequest{
		Product:             policy.Product,
		Principal:           principal,
		DownPaymentFraction: downPaymentPercent / 100,
		Term:                term,
		AnnualRatePercent:   annualRatePercent,
		Policy:              policy,
	}

	if downPaymentOK && principal.IsPositive() && policy.MinLoanAmount > 0 {
		loan := req.LoanAmount()
		if loan.IsPositive() && loan.LessThan(decimal.NewFromFloat(policy.MinLoanAmount)) {
			errs = append(errs, newValidationError(ErrInvalidDownPayment, CodeInvalidDownPayment,
				"down_payment_percent", fmt.Sprintf("financed amount must be at least %.2f", policy.MinLoanAmount)))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return req, nil
}
