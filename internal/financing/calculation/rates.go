package calculation

import (
	"fmt"
	"math"
	"sort"
)

// DefaultVehicleRates returns the standard vehicle tiers in percent per month
func DefaultVehicleRates() map[int]float64 {
	return map[int]float64{
		12: 1.29,
		24: 1.39,
		36: 1.49,
		48: 1.59,
	}
}

// VehicleTerms returns the allowed vehicle terms in months
func VehicleTerms() []int {
	return []int{12, 24, 36, 48}
}

// RateTable maps each allowed term to a fixed monthly rate in percent.
// It is read-only after construction.
type RateTable struct {
	rates map[int]float64
	terms []int
}

// NewRateTable builds a rate table from a copy of rates
func NewRateTable(rates map[int]float64) (*RateTable, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: rate table is empty", ErrInvalidCalculationInput)
	}

	copied := make(map[int]float64, len(rates))
	terms := make([]int, 0, len(rates))
	for term, percent := range rates {
		if term <= 0 {
			return nil, fmt.Errorf("%w: rate table term %d must be positive", ErrInvalidCalculationInput, term)
		}
		if percent < 0 || math.IsNaN(percent) || math.IsInf(percent, 0) {
			return nil, fmt.Errorf("%w: rate for term %d must be a non-negative number", ErrInvalidCalculationInput, term)
		}
		copied[term] = percent
		terms = append(terms, term)
	}
	sort.Ints(terms)

	return &RateTable{rates: copied, terms: terms}, nil
}

// DefaultVehicleRateTable returns a table with the standard vehicle tiers
func DefaultVehicleRateTable() *RateTable {
	table, err := NewRateTable(DefaultVehicleRates())
	if err != nil {
		panic(err)
	}
	return table
}

// MonthlyPercent looks up the rate for an exact term
func (t *RateTable) MonthlyPercent(term int) (float64, error) {
	percent, ok := t.rates[term]
	if !ok {
		return 0, fmt.Errorf("%w: %d months is not one of %v", ErrUnsupportedTerm, term, t.terms)
	}
	return percent, nil
}

// Supports reports whether term is in the table
func (t *RateTable) Supports(term int) bool {
	_, ok := t.rates[term]
	return ok
}

// Terms returns the allowed terms in ascending order
func (t *RateTable) Terms() []int {
	terms := make([]int, len(t.terms))
	copy(terms, t.terms)
	return terms
}

// Rates returns a copy of the table
func (t *RateTable) Rates() map[int]float64 {
	rates := make(map[int]float64, len(t.rates))
	for term, percent := range t.rates {
		rates[term] = percent
	}
	return rates
}

// ResolvedRate is the periodic rate and period count fed to the engine
type ResolvedRate struct {
	PeriodicRate float64 `json:"periodic_rate"`
	Periods      int     `json:"periods"`
	// NominalPercent is the rate as quoted to the client: annual for real
	// estate, monthly for vehicles.
	NominalPercent float64 `json:"nominal_percent"`
}

// RateResolver produces the monthly rate for a product and term
type RateResolver struct {
	vehicleRates *RateTable
}

// NewRateResolver creates a resolver backed by the given vehicle table.
// A nil table falls back to the standard tiers.
func NewRateResolver(vehicleRates *RateTable) *RateResolver {
	if vehicleRates == nil {
		vehicleRates = DefaultVehicleRateTable()
	}
	return &RateResolver{vehicleRates: vehicleRates}
}

// VehicleRates returns the table used for vehicle lookups
func (r *RateResolver) VehicleRates() *RateTable {
	return r.vehicleRates
}

// Resolve returns the rate for a product. annualPercent is only read for real estate.
func (r *RateResolver) Resolve(product Product, term int, annualPercent float64) (ResolvedRate, error) {
	switch product {
	case ProductRealEstate:
		return ResolvedRate{
			PeriodicRate:   AnnualPercentToMonthlyRate(annualPercent),
			Periods:        term * 12,
			NominalPercent: annualPercent,
		}, nil
	case ProductVehicle:
		percent, err := r.vehicleRates.MonthlyPercent(term)
		if err != nil {
			return ResolvedRate{}, err
		}
		return ResolvedRate{
			PeriodicRate:   percent / 100,
			Periods:        term,
			NominalPercent: percent,
		}, nil
	default:
		return ResolvedRate{}, fmt.Errorf("%w: unknown product %q", ErrInvalidCalculationInput, product)
	}
}

// AnnualPercentToMonthlyRate converts an annual percentage to a monthly fraction
func AnnualPercentToMonthlyRate(annualPercent float64) float64 {
	return annualPercent / 100 / 12
}
