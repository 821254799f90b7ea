package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAggregateNotFound is returned when no snapshot exists for a key
var ErrAggregateNotFound = errors.New("aggregate not found")

// StatsStore runs the dashboard queries
type StatsStore interface {
	RealEstateStats(ctx context.Context, since *time.Time) (ProductStats, error)
	VehicleStats(ctx context.Context, since *time.Time) (ProductStats, error)
	FGTSStats(ctx context.Context, since *time.Time) (LeadStats, error)
}

// ExportStore loads every row of a product for exports
type ExportStore interface {
	ExportRows(ctx context.Context, product string) (*Dataset, error)
}

// AggregateRepository persists dashboard snapshots
type AggregateRepository interface {
	Get(ctx context.Context, key string) (*DashboardAggregate, error)
	Upsert(ctx context.Context, aggregate *DashboardAggregate) error
	ListStale(ctx context.Context, now time.Time, limit int) ([]*DashboardAggregate, error)
	MarkAllStale(ctx context.Context) error
}

// SQLStore implements StatsStore and ExportStore over sqlx
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a new SQL store
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Zero and negative values are left out of the sums and averages.
const productStatsQuery = `
	SELECT
		COUNT(*) AS total,
		COALESCE(SUM(%[1]s) FILTER (WHERE %[1]s > 0), 0)::float8 AS total_value,
		COALESCE(AVG(%[1]s) FILTER (WHERE %[1]s > 0), 0)::float8 AS avg_value,
		COALESCE(AVG(interest_rate) FILTER (WHERE interest_rate > 0), 0)::float8 AS avg_rate
	FROM %[2]s
	WHERE ($1::timestamptz IS NULL OR created_at >= $1) %[3]s
`

// RealEstateStats summarizes the simulations table
func (s *SQLStore) RealEstateStats(ctx context.Context, since *time.Time) (ProductStats, error) {
	var stats ProductStats
	query := fmt.Sprintf(productStatsQuery, "property_value", "simulations", "")
	if err := s.db.GetContext(ctx, &stats, query, since); err != nil {
		return ProductStats{}, fmt.Errorf("failed to query real estate stats: %w", err)
	}
	return stats, nil
}

// VehicleStats summarizes the vehicle_simulations table
func (s *SQLStore) VehicleStats(ctx context.Context, since *time.Time) (ProductStats, error) {
	var stats ProductStats
	query := fmt.Sprintf(productStatsQuery, "vehicle_value", "vehicle_simulations", "AND deleted_at IS NULL")
	if err := s.db.GetContext(ctx, &stats, query, since); err != nil {
		return ProductStats{}, fmt.Errorf("failed to query vehicle stats: %w", err)
	}
	return stats, nil
}

// FGTSStats counts the FGTS leads
func (s *SQLStore) FGTSStats(ctx context.Context, since *time.Time) (LeadStats, error) {
	var stats LeadStats
	query := `
		SELECT COUNT(*) AS total
		FROM fgts_simulations
		WHERE ($1::timestamptz IS NULL OR created_at >= $1) AND deleted_at IS NULL
	`
	if err := s.db.GetContext(ctx, &stats, query, since); err != nil {
		return LeadStats{}, fmt.Errorf("failed to query fgts stats: %w", err)
	}
	return stats, nil
}

// ExportRows loads all rows of a product, newest first
func (s *SQLStore) ExportRows(ctx context.Context, product string) (*Dataset, error) {
	layout, ok := exportLayouts[product]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, product)
	}

	rows, err := s.db.QueryxContext(ctx, layout.query())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s export: %w", product, err)
	}
	defer rows.Close()

	dataset := &Dataset{
		Product: product,
		Sheet:   layout.Sheet,
		Columns: layout.headers(),
		Rows:    make([]map[string]interface{}, 0),
	}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s export row: %w", product, err)
		}
		row := make(map[string]interface{}, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[dataset.Columns[i]] = v
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s export: %w", product, err)
	}
	return dataset, nil
}

// GormAggregateRepository implements AggregateRepository
type GormAggregateRepository struct {
	db *gorm.DB
}

// NewGormAggregateRepository creates a new aggregate repository
func NewGormAggregateRepository(db *gorm.DB) *GormAggregateRepository {
	return &GormAggregateRepository{db: db}
}

// Get returns the snapshot stored under key
func (r *GormAggregateRepository) Get(ctx context.Context, key string) (*DashboardAggregate, error) {
	var aggregate DashboardAggregate
	err := r.db.WithContext(ctx).Where("aggregate_key = ?", key).First(&aggregate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAggregateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate: %w", err)
	}
	return &aggregate, nil
}

// Upsert inserts the snapshot or replaces the one with the same key
func (r *GormAggregateRepository) Upsert(ctx context.Context, aggregate *DashboardAggregate) error {
	if aggregate.ID == uuid.Nil {
		aggregate.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "aggregate_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"period", "data", "is_stale", "computed_at", "next_refresh_at", "updated_at"}),
	}).Create(aggregate).Error
	if err != nil {
		return fmt.Errorf("failed to upsert aggregate: %w", err)
	}
	return nil
}

// ListStale returns snapshots marked stale or past their refresh time, oldest first
func (r *GormAggregateRepository) ListStale(ctx context.Context, now time.Time, limit int) ([]*DashboardAggregate, error) {
	var aggregates []*DashboardAggregate
	err := r.db.WithContext(ctx).
		Where("is_stale = ? OR next_refresh_at <= ?", true, now).
		Order("computed_at ASC").
		Limit(limit).
		Find(&aggregates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale aggregates: %w", err)
	}
	return aggregates, nil
}

// MarkAllStale flags every snapshot for refresh
func (r *GormAggregateRepository) MarkAllStale(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Model(&DashboardAggregate{}).
		Where("is_stale = ?", false).
		Updates(map[string]interface{}{"is_stale": true, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("failed to mark aggregates stale: %w", err)
	}
	return nil
}
