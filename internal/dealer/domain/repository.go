package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, dealer *Dealer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Dealer, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Dealer, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*Dealer, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Dealer, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, at time.Time) (int64, error)
}

type ListFilter struct {
	Status Status
	Name   string
}
