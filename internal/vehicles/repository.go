package vehicles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a vehicle simulation does not exist
var ErrNotFound = errors.New("vehicle simulation not found")

// MaxListSize caps GET /vehicle-simulations
const MaxListSize = 100

// Repository defines the interface for vehicle simulation data access
type Repository interface {
	Create(ctx context.Context, sim *VehicleSimulation) error
	GetByID(ctx context.Context, id uuid.UUID) (*VehicleSimulation, error)
	ListRecent(ctx context.Context, limit int) ([]VehicleSimulation, error)
}

// GormRepository implements Repository on gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new gorm-backed repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, sim *VehicleSimulation) error {
	if err := r.db.WithContext(ctx).Create(sim).Error; err != nil {
		return fmt.Errorf("failed to create vehicle simulation: %w", err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*VehicleSimulation, error) {
	var sim VehicleSimulation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle simulation: %w", err)
	}
	return &sim, nil
}

func (r *GormRepository) ListRecent(ctx context.Context, limit int) ([]VehicleSimulation, error) {
	if limit <= 0 || limit > MaxListSize {
		limit = MaxListSize
	}

	var sims []VehicleSimulation
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&sims).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicle simulations: %w", err)
	}
	return sims, nil
}
