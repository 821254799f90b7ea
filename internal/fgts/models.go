package fgts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead is an FGTS anticipation lead. Column names follow the Portuguese form fields.
type Lead struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NomeCompleto string         `gorm:"not null" json:"nome_completo"`
	CPF          string         `gorm:"column:cpf;not null" json:"cpf"`
	RG           string         `gorm:"column:rg;not null" json:"rg"`
	Telefone     string         `gorm:"not null" json:"telefone"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the gorm default
func (Lead) TableName() string {
	return "fgts_simulations"
}

// CreateLeadRequest is the body of POST /fgts-simulations
type CreateLeadRequest struct {
	NomeCompleto string `json:"nome_completo" binding:"required"`
	CPF          string `json:"cpf" binding:"required,cpf"`
	RG           string `json:"rg" binding:"required"`
	Telefone     string `json:"telefone" binding:"required"`
}

// CreateResponse is returned after a lead is stored
type CreateResponse struct {
	Success bool      `json:"success"`
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}
