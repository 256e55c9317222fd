package service

import (
	"context"

	"github.com/smallbiznis/dealerhub/internal/cache"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	"github.com/smallbiznis/dealerhub/internal/dashboard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const homeKey = "home"

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
	Repo   domain.Repository
	Cache  cache.Cache[string, domain.HomeMetrics]
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	cfg   config.Config
	repo  domain.Repository
	cache cache.Cache[string, domain.HomeMetrics]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
		cfg:   p.Config,
		repo:  p.Repo,
		cache: p.Cache,
	}
}

// ComputeHomeMetrics reads through the cache. A broken cache never fails
// the request.
func (s *Service) ComputeHomeMetrics(ctx context.Context) (domain.HomeMetrics, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, homeKey)
		if err != nil {
			s.log.Warn("metrics cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	metrics, err := s.compute(ctx)
	if err != nil {
		return domain.HomeMetrics{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, homeKey, metrics, s.cfg.MetricsCacheTTL); err != nil {
			s.log.Warn("metrics cache write failed", zap.Error(err))
		}
	}
	return metrics, nil
}

func (s *Service) compute(ctx context.Context) (domain.HomeMetrics, error) {
	var (
		out domain.HomeMetrics
		err error
	)
	if out.ActiveDealers, err = s.repo.CountActiveDealers(ctx, s.db); err != nil {
		return domain.HomeMetrics{}, err
	}
	if out.ActiveEmployees, err = s.repo.CountActiveEmployments(ctx, s.db); err != nil {
		return domain.HomeMetrics{}, err
	}
	if out.ActiveClients, err = s.repo.CountActiveClientLinks(ctx, s.db); err != nil {
		return domain.HomeMetrics{}, err
	}

	start := clock.StartOfDay(s.clock.Now())
	end := start.AddDate(0, 0, 1)
	if out.TodaysJoins, err = s.repo.CountJoinsBetween(ctx, s.db, start, end); err != nil {
		return domain.HomeMetrics{}, err
	}
	if out.TodaysSeparations, err = s.repo.CountSeparationsBetween(ctx, s.db, start, end); err != nil {
		return domain.HomeMetrics{}, err
	}
	return out, nil
}

func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, homeKey); err != nil {
		s.log.Warn("metrics cache invalidation failed", zap.Error(err))
	}
}
