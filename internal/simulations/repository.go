package simulations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a simulation does not exist
var ErrNotFound = errors.New("simulation not found")

// Repository defines the interface for simulation data access
type Repository interface {
	Create(ctx context.Context, sim *Simulation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Simulation, error)
	List(ctx context.Context, filters *ListFilters) ([]*Simulation, int, error)
	UpdateProposalStatus(ctx context.Context, id uuid.UUID, status string, accepted bool) error
	MarkSigned(ctx context.Context, id uuid.UUID, documentKey, fingerprint string, signedAt time.Time) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const simulationColumns = `
	id, client_name, client_email, client_phone, client_cpf,
	property_value, down_payment_percentage, down_payment_amount, loan_amount,
	loan_term_years, interest_rate, monthly_payment, total_payment, total_interest,
	proposal_accepted, proposal_status, signed_document_key, signature_fingerprint, signed_at,
	created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, sim *Simulation) error {
	query := `
		INSERT INTO simulations (
			id, client_name, client_email, client_phone, client_cpf,
			property_value, down_payment_percentage, down_payment_amount, loan_amount,
			loan_term_years, interest_rate, monthly_payment, total_payment, total_interest,
			proposal_accepted, proposal_status, created_at, updated_at
		) VALUES (
			:id, :client_name, :client_email, :client_phone, :client_cpf,
			:property_value, :down_payment_percentage, :down_payment_amount, :loan_amount,
			:loan_term_years, :interest_rate, :monthly_payment, :total_payment, :total_interest,
			:proposal_accepted, :proposal_status, :created_at, :updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, sim); err != nil {
		return fmt.Errorf("failed to create simulation: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Simulation, error) {
	query := `SELECT` + simulationColumns + ` FROM simulations WHERE id = $1`

	var sim Simulation
	if err := r.db.GetContext(ctx, &sim, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}
	return &sim, nil
}

func (r *PostgresRepository) List(ctx context.Context, filters *ListFilters) ([]*Simulation, int, error) {
	var conditions []string
	var args []interface{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("(client_name ILIKE $%d OR client_email ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+filters.Search+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM simulations " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count simulations: %w", err)
	}

	offset := (filters.Page - 1) * filters.PageSize
	query := fmt.Sprintf(`SELECT %s FROM simulations %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		simulationColumns, whereClause, argCount+1, argCount+2)
	args = append(args, filters.PageSize, offset)

	var sims []*Simulation
	if err := r.db.SelectContext(ctx, &sims, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list simulations: %w", err)
	}
	return sims, total, nil
}

func (r *PostgresRepository) UpdateProposalStatus(ctx context.Context, id uuid.UUID, status string, accepted bool) error {
	query := `
		UPDATE simulations
		SET proposal_status = $2, proposal_accepted = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, "update proposal status", query, id, status, accepted)
}

func (r *PostgresRepository) MarkSigned(ctx context.Context, id uuid.UUID, documentKey, fingerprint string, signedAt time.Time) error {
	query := `
		UPDATE simulations
		SET proposal_status = 'signed', proposal_accepted = TRUE,
			signed_document_key = $2, signature_fingerprint = $3, signed_at = $4, updated_at = NOW()
		WHERE id = $1 AND proposal_status <> 'signed'
	`
	return r.execOne(ctx, "mark simulation signed", query, id, documentKey, fingerprint, signedAt)
}

func (r *PostgresRepository) execOne(ctx context.Context, action, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
