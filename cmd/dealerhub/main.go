package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	"github.com/smallbiznis/dealerhub/internal/migration"
	"github.com/smallbiznis/dealerhub/internal/observability"
	"github.com/smallbiznis/dealerhub/internal/server"
	"github.com/smallbiznis/dealerhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Registry domains and HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
