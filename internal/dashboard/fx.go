package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/dealerhub/internal/cache"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/dashboard/domain"
	"github.com/smallbiznis/dealerhub/internal/dashboard/repository"
	"github.com/smallbiznis/dealerhub/internal/dashboard/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("dashboard.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideCache),
	fx.Provide(service.New),
	fx.Invoke(registerCollector),
)

// provideCache shares the snapshot through redis when it is configured.
func provideCache(client *redis.Client, clk clock.Clock) cache.Cache[string, domain.HomeMetrics] {
	if client != nil {
		return cache.NewRedisCache[domain.HomeMetrics](client, "dealerhub:metrics")
	}
	return cache.NewTTLCache[string, domain.HomeMetrics](clk)
}

func registerCollector(reg prometheus.Registerer, svc domain.Service, log *zap.Logger) error {
	return reg.Register(NewCollector(svc, log))
}
