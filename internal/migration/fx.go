package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/config"
	"github.com/smallbiznis/dealerhub/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := Run(sqlDB, cfg.DBType); err != nil {
			return err
		}

		if !cfg.SeedDemoData {
			return nil
		}
		created, err := seed.EnsureDemoDealers(conn, node)
		if err != nil {
			return err
		}
		if created > 0 {
			log.Info("seeded demo dealers", zap.Int("count", created))
		}
		return nil
	}),
)
