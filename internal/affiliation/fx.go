package affiliation

import (
	"github.com/smallbiznis/dealerhub/internal/affiliation/repository"
	"github.com/smallbiznis/dealerhub/internal/affiliation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("affiliation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
