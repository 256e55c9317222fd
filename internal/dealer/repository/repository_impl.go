package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/dealer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const dealerColumns = `id, code, legal_name, outlet_name, location, status, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, dealer *domain.Dealer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO dealers (`+dealerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		dealer.ID,
		dealer.Code,
		dealer.LegalName,
		dealer.OutletName,
		dealer.Location,
		dealer.Status,
		dealer.CreatedAt,
		dealer.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Dealer, error) {
	var dealer domain.Dealer
	err := db.WithContext(ctx).Raw(
		`SELECT `+dealerColumns+` FROM dealers WHERE id = ?`,
		id,
	).Scan(&dealer).Error
	if err != nil {
		return nil, err
	}
	if dealer.ID == 0 {
		return nil, nil
	}
	return &dealer, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Dealer, error) {
	var dealer domain.Dealer
	err := db.WithContext(ctx).Raw(
		`SELECT `+dealerColumns+` FROM dealers WHERE code = ?`,
		code,
	).Scan(&dealer).Error
	if err != nil {
		return nil, err
	}
	if dealer.ID == 0 {
		return nil, nil
	}
	return &dealer, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.Dealer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var dealers []*domain.Dealer
	err := db.WithContext(ctx).Raw(
		`SELECT `+dealerColumns+` FROM dealers WHERE id IN ?`,
		ids,
	).Scan(&dealers).Error
	if err != nil {
		return nil, err
	}
	return dealers, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Dealer, error) {
	var dealers []*domain.Dealer
	stmt := db.WithContext(ctx).Model(&domain.Dealer{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		like := "%" + strings.ToLower(name) + "%"
		stmt = stmt.Where("LOWER(legal_name) LIKE ? OR LOWER(outlet_name) LIKE ?", like, like)
	}
	if err := stmt.Order("legal_name asc, id asc").Find(&dealers).Error; err != nil {
		return nil, err
	}
	return dealers, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE dealers SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		at,
		id,
	)
	return res.RowsAffected, res.Error
}
