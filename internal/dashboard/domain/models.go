package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// HomeMetrics are independent point-in-time counts. Nothing ties them
// together; each is its own query.
type HomeMetrics struct {
	ActiveDealers     int64 `json:"activeDealers"`
	ActiveEmployees   int64 `json:"activeEmployees"`
	ActiveClients     int64 `json:"activeClients"`
	TodaysJoins       int64 `json:"todaysJoins"`
	TodaysSeparations int64 `json:"todaysSeparations"`
}

type Repository interface {
	CountActiveDealers(ctx context.Context, db *gorm.DB) (int64, error)
	CountActiveEmployments(ctx context.Context, db *gorm.DB) (int64, error)
	CountActiveClientLinks(ctx context.Context, db *gorm.DB) (int64, error)
	CountJoinsBetween(ctx context.Context, db *gorm.DB, from, to time.Time) (int64, error)
	CountSeparationsBetween(ctx context.Context, db *gorm.DB, from, to time.Time) (int64, error)
}

type Service interface {
	ComputeHomeMetrics(ctx context.Context) (HomeMetrics, error)
	Invalidate(ctx context.Context)
}
