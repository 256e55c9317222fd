package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the handle to run on so callers can compose them
// inside a single transaction.
type Repository interface {
	InsertEmployment(ctx context.Context, db *gorm.DB, employment *Employment) error
	FindEmploymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Employment, error)
	FindActiveEmployment(ctx context.Context, db *gorm.DB, personID snowflake.ID) (*Employment, error)
	ListEmploymentsByPersons(ctx context.Context, db *gorm.DB, personIDs []snowflake.ID) ([]*Employment, error)
	ListEmploymentsByDealer(ctx context.Context, db *gorm.DB, dealerID snowflake.ID, status Status) ([]*Employment, error)
	// CloseEmployment flips an ACTIVE employment to INACTIVE and reports rows affected.
	CloseEmployment(ctx context.Context, db *gorm.DB, id snowflake.ID, resignedAt, at time.Time) (int64, error)
	InsertSeparationEvent(ctx context.Context, db *gorm.DB, event *SeparationEvent) error

	InsertClientLink(ctx context.Context, db *gorm.DB, link *ClientLink) error
	FindClientLinkByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ClientLink, error)
	FindActiveClientLink(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (*ClientLink, error)
	FindActiveClientLinks(ctx context.Context, db *gorm.DB, clientIDs []snowflake.ID) ([]*ClientLink, error)
	ListClientLinksByDealer(ctx context.Context, db *gorm.DB, dealerID snowflake.ID, status Status) ([]*ClientLink, error)
	// DeactivateClientLink flips an ACTIVE link to INACTIVE and reports rows affected.
	DeactivateClientLink(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, at time.Time) (int64, error)
}
