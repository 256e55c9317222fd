package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status   Status
	ClientID snowflake.ID
	DealerID snowflake.ID
	Cursor   *Cursor
	Limit    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, transfer *TransferRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TransferRequest, error)
	FindPendingByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (*TransferRequest, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*TransferRequest, error)
	// Decide moves a transfer out of from, reporting rows affected. Zero means
	// another request decided it first.
	Decide(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, decidedBy string, at time.Time) (int64, error)
}
