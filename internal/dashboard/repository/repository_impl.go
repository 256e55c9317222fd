package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/dealerhub/internal/dashboard/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountActiveDealers(ctx context.Context, db *gorm.DB) (int64, error) {
	return r.count(ctx, db, `SELECT COUNT(*) FROM dealers WHERE status = 'ACTIVE'`)
}

func (r *repo) CountActiveEmployments(ctx context.Context, db *gorm.DB) (int64, error) {
	return r.count(ctx, db, `SELECT COUNT(*) FROM employments WHERE status = 'ACTIVE'`)
}

func (r *repo) CountActiveClientLinks(ctx context.Context, db *gorm.DB) (int64, error) {
	return r.count(ctx, db, `SELECT COUNT(*) FROM client_dealer_links WHERE status = 'ACTIVE'`)
}

func (r *repo) CountJoinsBetween(ctx context.Context, db *gorm.DB, from, to time.Time) (int64, error) {
	return r.count(ctx, db,
		`SELECT COUNT(*) FROM employments WHERE date_of_joining >= ? AND date_of_joining < ?`,
		from, to,
	)
}

func (r *repo) CountSeparationsBetween(ctx context.Context, db *gorm.DB, from, to time.Time) (int64, error) {
	return r.count(ctx, db,
		`SELECT COUNT(*) FROM separation_events WHERE separation_date >= ? AND separation_date < ?`,
		from, to,
	)
}

func (r *repo) count(ctx context.Context, db *gorm.DB, query string, args ...any) (int64, error) {
	var total int64
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
