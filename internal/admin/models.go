package admin

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Period selects the window of the dashboard statistics
type Period string

const (
	PeriodAll       Period = "all"
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// Periods lists every supported period, refreshed together by the scheduler
var Periods = []Period{PeriodAll, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly}

// ParsePeriod maps a query value to a period. An empty value means all time.
func ParsePeriod(raw string) (Period, bool) {
	if raw == "" {
		return PeriodAll, true
	}
	for _, p := range Periods {
		if string(p) == raw {
			return p, true
		}
	}
	return "", false
}

// Since returns the start of the period window, nil for all time
func (p Period) Since(now time.Time) *time.Time {
	var start time.Time
	switch p {
	case PeriodDaily:
		start = now.AddDate(0, 0, -1)
	case PeriodWeekly:
		start = now.AddDate(0, 0, -7)
	case PeriodMonthly:
		start = now.AddDate(0, -1, 0)
	case PeriodQuarterly:
		start = now.AddDate(0, -3, 0)
	case PeriodYearly:
		start = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &start
}

// ProductStats summarizes the simulations of a financed product
type ProductStats struct {
	Total      int     `json:"total" db:"total"`
	TotalValue float64 `json:"totalValue" db:"total_value"`
	AvgValue   float64 `json:"avgValue" db:"avg_value"`
	AvgRate    float64 `json:"avgRate" db:"avg_rate"`
}

// LeadStats counts FGTS leads
type LeadStats struct {
	Total int `json:"total" db:"total"`
}

// Stats is the admin dashboard payload
type Stats struct {
	RealEstate ProductStats `json:"realEstate"`
	Vehicle    ProductStats `json:"vehicle"`
	FGTS       LeadStats    `json:"fgts"`
	Period     Period       `json:"period"`
	ComputedAt time.Time    `json:"computedAt"`
}

// DashboardAggregate is a persisted snapshot of Stats
type DashboardAggregate struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AggregateKey  string         `gorm:"column:aggregate_key;uniqueIndex" json:"aggregate_key"`
	Period        string         `gorm:"column:period" json:"period"`
	Data          datatypes.JSON `gorm:"column:data" json:"data"`
	IsStale       bool           `gorm:"column:is_stale" json:"is_stale"`
	ComputedAt    time.Time      `gorm:"column:computed_at" json:"computed_at"`
	NextRefreshAt time.Time      `gorm:"column:next_refresh_at" json:"next_refresh_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (DashboardAggregate) TableName() string {
	return "dashboard_aggregates"
}

// CacheStats reports the state of the dashboard cache
type CacheStats struct {
	Backend string  `json:"backend"`
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}
