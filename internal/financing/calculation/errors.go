package calculation

import (
	"errors"
	"strings"
)

// Error kinds surfaced by the calculator. Validation kinds are reported in
// batches, the others short-circuit.
var (
	ErrInvalidPrincipal        = errors.New("invalid principal")
	ErrInvalidDownPayment      = errors.New("invalid down payment")
	ErrInvalidTerm             = errors.New("invalid term")
	ErrInvalidRate             = errors.New("invalid interest rate")
	ErrUnsupportedTerm         = errors.New("unsupported term")
	ErrInvalidCalculationInput = errors.New("invalid calculation input")
	ErrNonFiniteResult         = errors.New("non-finite result")
)

// Error codes used in API responses
const (
	CodeInvalidPrincipal        = "INVALID_PRINCIPAL"
	CodeInvalidDownPayment      = "INVALID_DOWN_PAYMENT"
	CodeInvalidTerm             = "INVALID_TERM"
	CodeInvalidRate             = "INVALID_RATE"
	CodeUnsupportedTerm         = "UNSUPPORTED_TERM"
	CodeInvalidCalculationInput = "INVALID_CALCULATION_INPUT"
	CodeNonFiniteResult         = "NON_FINITE_RESULT"
)

// ValidationError represents a field-level validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	kind    error
}

func newValidationError(kind error, code, field, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: message,
		Code:    code,
		kind:    kind,
	}
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap exposes the error kind for errors.Is
func (e ValidationError) Unwrap() error {
	return e.kind
}

// ValidationErrors is the batch returned when a request breaks more than one rule
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap returns every member so errors.Is matches any kind in the batch
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// IsValidationError reports whether err carries field-level validation failures
func IsValidationError(err error) bool {
	var batch ValidationErrors
	if errors.As(err, &batch) {
		return true
	}
	var single ValidationError
	return errors.As(err, &single)
}

// CodeOf maps an error to its API code, empty when the error is not a calculation error
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedTerm):
		return CodeUnsupportedTerm
	case errors.Is(err, ErrInvalidCalculationInput):
		return CodeInvalidCalculationInput
	case errors.Is(err, ErrNonFiniteResult):
		return CodeNonFiniteResult
	case errors.Is(err, ErrInvalidPrincipal):
		return CodeInvalidPrincipal
	case errors.Is(err, ErrInvalidDownPayment):
		return CodeInvalidDownPayment
	case errors.Is(err, ErrInvalidTerm):
		return CodeInvalidTerm
	case errors.Is(err, ErrInvalidRate):
		return CodeInvalidRate
	default:
		return ""
	}
}
