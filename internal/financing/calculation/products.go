package calculation

import "fmt"

// Product identifies a financing product
type Product string

const (
	ProductRealEstate Product = "real_estate"
	ProductVehicle    Product = "vehicle"
)

// TermUnit is the unit a product expresses its term in
type TermUnit string

const (
	TermUnitYears  TermUnit = "years"
	TermUnitMonths TermUnit = "months"
)

// Real estate limits
const (
	RealEstateMinDownPaymentPercent  = 20.0
	RealEstateMinDownPaymentFraction = RealEstateMinDownPaymentPercent / 100
	RealEstateMaxPrincipal           = 50_000_000
	RealEstateMaxTermYears           = 50
	RealEstateMinLoanAmount          = 10_000
	RealEstateMaxAnnualRatePercent   = 50.0

	RealEstateDefaultDownPaymentPercent = 20.0
	RealEstateDefaultTermYears          = 30
	RealEstateDefaultAnnualRatePercent  = 8.5
)

// Vehicle limits
const (
	VehicleMinDownPaymentPercent = 5.0
	VehicleMaxPrincipal          = 5_000_000
	VehicleMaxTermMonths         = 48

	VehicleDefaultDownPaymentPercent = 20.0
	VehicleDefaultTermMonths         = 24
)

// MaxDownPaymentPercent is the down payment ceiling of every product
const MaxDownPaymentPercent = 100.0

// ProductPolicy holds the limits the input normalizer checks for a product
type ProductPolicy struct {
	Product               Product  `json:"product"`
	TermUnit              TermUnit `json:"term_unit"`
	MinDownPaymentPercent float64  `json:"min_down_payment_percent"`
	MaxDownPaymentPercent float64  `json:"max_down_payment_percent"`
	MaxPrincipal          float64  `json:"max_principal"`
	MaxTerm               int      `json:"max_term"`
	MinLoanAmount         float64  `json:"min_loan_amount"`
	DefaultDownPayment    float64  `json:"default_down_payment_percent"`
	DefaultTerm           int      `json:"default_term"`

	// MaxAnnualRatePercent bounds a caller supplied rate. Zero means the
	// product rate comes from a table and callers cannot supply one.
	MaxAnnualRatePercent float64 `json:"max_annual_rate_percent,omitempty"`
}

// RealEstatePolicy returns the real estate product policy
func RealEstatePolicy() ProductPolicy {
	return ProductPolicy{
		Product:               ProductRealEstate,
		TermUnit:              TermUnitYears,
		MinDownPaymentPercent: RealEstateMinDownPaymentPercent,
		MaxDownPaymentPercent: MaxDownPaymentPercent,
		MaxPrincipal:          RealEstateMaxPrincipal,
		MaxTerm:               RealEstateMaxTermYears,
		MinLoanAmount:         RealEstateMinLoanAmount,
		MaxAnnualRatePercent:  RealEstateMaxAnnualRatePercent,
		DefaultDownPayment:    RealEstateDefaultDownPaymentPercent,
		DefaultTerm:           RealEstateDefaultTermYears,
	}
}

// VehiclePolicy returns the vehicle product policy
func VehiclePolicy() ProductPolicy {
	return ProductPolicy{
		Product:               ProductVehicle,
		TermUnit:              TermUnitMonths,
		MinDownPaymentPercent: VehicleMinDownPaymentPercent,
		MaxDownPaymentPercent: MaxDownPaymentPercent,
		MaxPrincipal:          VehicleMaxPrincipal,
		MaxTerm:               VehicleMaxTermMonths,
		DefaultDownPayment:    VehicleDefaultDownPaymentPercent,
		DefaultTerm:           VehicleDefaultTermMonths,
	}
}

// PolicyFor returns the policy for a product
func PolicyFor(product Product) (ProductPolicy, error) {
	switch product {
	case ProductRealEstate:
		return RealEstatePolicy(), nil
	case ProductVehicle:
		return VehiclePolicy(), nil
	default:
		return ProductPolicy{}, fmt.Errorf("%w: unknown product %q", ErrInvalidCalculationInput, product)
	}
}
