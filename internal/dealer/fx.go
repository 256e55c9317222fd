package dealer

import (
	"github.com/smallbiznis/dealerhub/internal/dealer/repository"
	"github.com/smallbiznis/dealerhub/internal/dealer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dealer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
