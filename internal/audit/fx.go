package audit

import (
	"github.com/smallbiznis/dealerhub/internal/audit/domain"
	"github.com/smallbiznis/dealerhub/internal/audit/repository"
	"github.com/smallbiznis/dealerhub/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(svc domain.Service) domain.Recorder { return svc }),
)
