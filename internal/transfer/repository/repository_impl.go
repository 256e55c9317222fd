package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/transfer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const transferColumns = `id, client_id, from_dealer_id, to_dealer_id, status, reason, requested_by, decided_by, created_at, decided_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, transfer *domain.TransferRequest) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transfer_requests (`+transferColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		transfer.ID,
		transfer.ClientID,
		transfer.FromDealerID,
		transfer.ToDealerID,
		transfer.Status,
		transfer.Reason,
		transfer.RequestedBy,
		transfer.DecidedBy,
		transfer.CreatedAt,
		transfer.DecidedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.TransferRequest, error) {
	return r.find(ctx, db, `id = ?`, id)
}

func (r *repo) FindPendingByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (*domain.TransferRequest, error) {
	return r.find(ctx, db, `client_id = ? AND status = 'PENDING'`, clientID)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.TransferRequest, error) {
	var transfer domain.TransferRequest
	err := db.WithContext(ctx).Raw(
		`SELECT `+transferColumns+` FROM transfer_requests WHERE `+where+` ORDER BY created_at desc LIMIT 1`,
		arg,
	).Scan(&transfer).Error
	if err != nil {
		return nil, err
	}
	if transfer.ID == 0 {
		return nil, nil
	}
	return &transfer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.TransferRequest, error) {
	var transfers []*domain.TransferRequest
	stmt := db.WithContext(ctx).Model(&domain.TransferRequest{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	if filter.DealerID != 0 {
		stmt = stmt.Where("(from_dealer_id = ? OR to_dealer_id = ?)", filter.DealerID, filter.DealerID)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("((created_at < ?) OR (created_at = ? AND id < ?))",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	if err := stmt.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

func (r *repo) Decide(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, decidedBy string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE transfer_requests SET status = ?, decided_by = ?, decided_at = ? WHERE id = ? AND status = ?`,
		to,
		decidedBy,
		at,
		id,
		from,
	)
	return res.RowsAffected, res.Error
}
