package simulations

import (
	"time"

	"github.com/google/uuid"

	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
)

// Simulation is a persisted real estate financing simulation
type Simulation struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	ClientName            string     `db:"client_name" json:"client_name"`
	ClientEmail           string     `db:"client_email" json:"client_email"`
	ClientPhone           string     `db:"client_phone" json:"client_phone"`
	ClientCPF             string     `db:"client_cpf" json:"client_cpf"`
	PropertyValue         float64    `db:"property_value" json:"property_value"`
	DownPaymentPercentage float64    `db:"down_payment_percentage" json:"down_payment_percentage"`
	DownPaymentAmount     float64    `db:"down_payment_amount" json:"down_payment_amount"`
	LoanAmount            float64    `db:"loan_amount" json:"loan_amount"`
	LoanTermYears         int        `db:"loan_term_years" json:"loan_term_years"`
	InterestRate          float64    `db:"interest_rate" json:"interest_rate"`
	MonthlyPayment        float64    `db:"monthly_payment" json:"monthly_payment"`
	TotalPayment          float64    `db:"total_payment" json:"total_payment"`
	TotalInterest         float64    `db:"total_interest" json:"total_interest"`
	ProposalAccepted      bool       `db:"proposal_accepted" json:"proposal_accepted"`
	ProposalStatus        string     `db:"proposal_status" json:"proposal_status"`
	SignedDocumentKey     *string    `db:"signed_document_key" json:"signed_document_key,omitempty"`
	SignatureFingerprint  *string    `db:"signature_fingerprint" json:"signature_fingerprint,omitempty"`
	SignedAt              *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// FinancingRequest rebuilds the calculator input from the stored fields.
// The percentage and rate columns are unbounded numerics so the rebuilt
// quote matches the one returned at creation.
func (s *Simulation) FinancingRequest() calculation.FinancingRequest {
	return calculation.FinancingRequest{
		Product:            calculation.ProductRealEstate,
		Principal:          calculation.NewCurrencyValue(s.PropertyValue).Decimal,
		DownPaymentPercent: s.DownPaymentPercentage,
		TermPeriods:        s.LoanTermYears,
		AnnualRatePercent:  s.InterestRate,
	}
}

// CreateSimulationRequest is the body of POST /simulations
type CreateSimulationRequest struct {
	ClientName            string                    `json:"client_name" binding:"required"`
	ClientEmail           string                    `json:"client_email" binding:"required,email"`
	ClientPhone           string                    `json:"client_phone"`
	ClientCPF             string                    `json:"client_cpf"`
	PropertyValue         calculation.CurrencyValue `json:"property_value"`
	DownPaymentPercentage *float64                  `json:"down_payment_percentage"`
	LoanTermYears         *int                      `json:"loan_term_years"`
	InterestRate          *float64                  `json:"interest_rate"`
}

// UpdateProposalRequest is the body of PATCH /simulations/:id
type UpdateProposalRequest struct {
	ProposalAccepted *bool `json:"proposal_accepted" binding:"required"`
}

// ListFilters holds pagination and search options
type ListFilters struct {
	Page     int
	PageSize int
	Search   string
}

// ListResponse is a page of simulations
type ListResponse struct {
	Simulations []*Simulation `json:"simulations"`
	TotalCount  int           `json:"total_count"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
	HasMore     bool          `json:"has_more"`
}

// ScheduleResponse is the full amortization plan of a stored simulation
type ScheduleResponse struct {
	SimulationID uuid.UUID                   `json:"simulation_id"`
	Result       calculation.FinancingResult `json:"result"`
	Installments []calculation.Installment   `json:"installments"`
}
