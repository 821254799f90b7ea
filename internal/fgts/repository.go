package fgts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lead does not exist
var ErrNotFound = errors.New("fgts simulation not found")

// Repository defines the interface for FGTS lead data access
type Repository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	List(ctx context.Context, limit int) ([]Lead, error)
}

// GormRepository implements Repository on gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new gorm-backed repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, lead *Lead) error {
	if err := r.db.WithContext(ctx).Create(lead).Error; err != nil {
		return fmt.Errorf("failed to create fgts simulation: %w", err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	var lead Lead
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get fgts simulation: %w", err)
	}
	return &lead, nil
}

// List returns leads newest first. A non-positive limit returns every lead.
func (r *GormRepository) List(ctx context.Context, limit int) ([]Lead, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var leads []Lead
	if err := query.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to list fgts simulations: %w", err)
	}
	return leads, nil
}
