package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	Entity   Entity
	EntityID string
	Cursor   *Cursor
	Offset   int
	Limit    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}
