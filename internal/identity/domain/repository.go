package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// SearchLimit caps search results so an over-broad filter cannot dump the registry.
const SearchLimit = 100

type Repository interface {
	InsertPerson(ctx context.Context, db *gorm.DB, person *Person) error
	FindPersonByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Person, error)
	FindPersonByNationalID(ctx context.Context, db *gorm.DB, nationalID string) (*Person, error)
	FindPersonsByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*Person, error)
	SearchPersons(ctx context.Context, db *gorm.DB, filter PersonSearch) ([]*Person, error)

	InsertClient(ctx context.Context, db *gorm.DB, client *Client) error
	FindClientByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	FindClientByTaxID(ctx context.Context, db *gorm.DB, taxID string) (*Client, error)
	FindClientByOrgID(ctx context.Context, db *gorm.DB, orgID string) (*Client, error)
	FindClientsByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*Client, error)
	SearchClients(ctx context.Context, db *gorm.DB, filter ClientSearch) ([]*Client, error)

	InsertVehicle(ctx context.Context, db *gorm.DB, vehicle *Vehicle) error
	FindVehicleByRegistration(ctx context.Context, db *gorm.DB, registration string) (*Vehicle, error)
	ListVehiclesByClientIDs(ctx context.Context, db *gorm.DB, clientIDs []snowflake.ID) ([]*Vehicle, error)
}
