package conflict

import (
	"github.com/smallbiznis/dealerhub/internal/conflict/repository"
	"github.com/smallbiznis/dealerhub/internal/conflict/service"
	"go.uber.org/fx"
)

var Module = fx.Module("conflict.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
