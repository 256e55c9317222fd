package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
	dealerrepo "github.com/smallbiznis/dealerhub/internal/dealer/repository"
	"gorm.io/gorm"
)

type demoDealer struct {
	legalName  string
	outletName string
	location   string
}

var demoDealers = []demoDealer{
	{legalName: "Hilal Enterprises Pvt Ltd", outletName: "Hilal Petroleum", location: "Srinagar"},
	{legalName: "Bharat Petroleum Dealers", outletName: "Bharat Fuel Services", location: "Anantnag"},
}

// EnsureDemoDealers registers the demo outlets for local environments. Dealers
// already present by code are left untouched. It returns how many were created.
func EnsureDemoDealers(db *gorm.DB, node *snowflake.Node) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}
	if node == nil {
		var err error
		node, err = snowflake.NewNode(1)
		if err != nil {
			return 0, err
		}
	}

	repo := dealerrepo.Provide()
	ctx := context.Background()
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, demo := range demoDealers {
			code := slug.Make(demo.outletName)
			existing, err := repo.FindByCode(ctx, tx, code)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			now := time.Now().UTC()
			if err := repo.Insert(ctx, tx, &dealerdomain.Dealer{
				ID:         node.Generate(),
				Code:       code,
				LegalName:  demo.legalName,
				OutletName: demo.outletName,
				Location:   demo.location,
				Status:     dealerdomain.StatusActive,
				CreatedAt:  now,
				UpdatedAt:  now,
			}); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
