package vehicles

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
)

// VehicleSimulation is a persisted vehicle financing simulation
type VehicleSimulation struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientName  string    `gorm:"not null" json:"client_name"`
	ClientEmail string    `gorm:"not null" json:"client_email"`
	ClientPhone string    `gorm:"not null" json:"client_phone"`
	ClientCPF   string    `gorm:"column:client_cpf;not null" json:"client_cpf"`
	ClientCEP   *string   `gorm:"column:client_cep" json:"client_cep,omitempty"`

	VehicleType  string  `gorm:"not null" json:"vehicle_type"`
	KnowsModel   bool    `gorm:"not null;default:false" json:"knows_model"`
	VehicleYear  *int    `json:"vehicle_year,omitempty"`
	VehicleBrand *string `json:"vehicle_brand,omitempty"`
	VehicleModel *string `json:"vehicle_model,omitempty"`
	VehicleValue float64 `gorm:"type:numeric(15,2);not null" json:"vehicle_value"`

	PurchaseTimeline *string `json:"purchase_timeline,omitempty"`
	SellerType       *string `json:"seller_type,omitempty"`

	DownPaymentPercentage float64 `gorm:"type:numeric;not null" json:"down_payment_percentage"`
	DownPaymentAmount     float64 `gorm:"type:numeric(15,2);not null" json:"down_payment_amount"`
	LoanAmount            float64 `gorm:"type:numeric(15,2);not null" json:"loan_amount"`
	LoanTermMonths        int     `gorm:"not null" json:"loan_term_months"`
	InterestRate          float64 `gorm:"type:numeric;not null" json:"interest_rate"` // % a.m.
	MonthlyPayment        float64 `gorm:"type:numeric(15,2);not null" json:"monthly_payment"`
	TotalPayment          float64 `gorm:"type:numeric(15,2);not null" json:"total_payment"`
	TotalInterest         float64 `gorm:"type:numeric(15,2);not null" json:"total_interest"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the gorm default
func (VehicleSimulation) TableName() string {
	return "vehicle_simulations"
}

// Requests

// PersonalData identifies the client
type PersonalData struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,phone_br"`
	CPF   string `json:"cpf" binding:"required,cpf"`
}

// VehicleData describes the vehicle being financed
type VehicleData struct {
	VehicleType  string                    `json:"vehicleType" binding:"required"`
	KnowsModel   bool                      `json:"knowsModel"`
	CEP          string                    `json:"cep" binding:"omitempty,cep"`
	Year         string                    `json:"year"`
	Brand        string                    `json:"brand"`
	Model        string                    `json:"model"`
	VehicleValue calculation.CurrencyValue `json:"vehicleValue"`
}

// SellerData describes the purchase
type SellerData struct {
	Timeline   string `json:"timeline"`
	SellerType string `json:"sellerType"`
}

// FinancingData holds the optional financing choices
type FinancingData struct {
	DownPaymentPercentage *float64 `json:"downPaymentPercentage"`
	LoanTermMonths        *int     `json:"loanTermMonths"`
}

// CreateVehicleSimulationRequest is the body of POST /vehicle-simulations
type CreateVehicleSimulationRequest struct {
	PersonalData  PersonalData  `json:"personalData" binding:"required"`
	VehicleData   VehicleData   `json:"vehicleData" binding:"required"`
	SellerData    SellerData    `json:"sellerData"`
	FinancingData FinancingData `json:"financingData"`
}

// CreateResponse is returned after a simulation is stored
type CreateResponse struct {
	Success           bool                        `json:"success"`
	ID                uuid.UUID                   `json:"id"`
	CalculationResult calculation.FinancingResult `json:"calculationResult"`
	MonthlyRate       float64                     `json:"monthlyRate"`
}
