package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/dealerhub/internal/affiliation"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	"github.com/smallbiznis/dealerhub/internal/audit"
	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	"github.com/smallbiznis/dealerhub/internal/authorization"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	"github.com/smallbiznis/dealerhub/internal/conflict"
	conflictdomain "github.com/smallbiznis/dealerhub/internal/conflict/domain"
	"github.com/smallbiznis/dealerhub/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/dealerhub/internal/dashboard/domain"
	"github.com/smallbiznis/dealerhub/internal/dealer"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
	"github.com/smallbiznis/dealerhub/internal/identity"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
	"github.com/smallbiznis/dealerhub/internal/lock"
	"github.com/smallbiznis/dealerhub/internal/observability"
	obslogger "github.com/smallbiznis/dealerhub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/dealerhub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/dealerhub/internal/observability/tracing"
	"github.com/smallbiznis/dealerhub/internal/onboarding"
	onboardingdomain "github.com/smallbiznis/dealerhub/internal/onboarding/domain"
	"github.com/smallbiznis/dealerhub/internal/transfer"
	transferdomain "github.com/smallbiznis/dealerhub/internal/transfer/domain"
	"github.com/smallbiznis/dealerhub/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	lock.Module,
	authorization.Module,
	audit.Module,
	dealer.Module,
	identity.Module,
	affiliation.Module,
	conflict.Module,
	transfer.Module,
	onboarding.Module,
	dashboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *telemetry.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *telemetry.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	log    *zap.Logger
	clock  clock.Clock
	rules  *config.RulesHolder

	authzSvc       authorization.Service
	auditSvc       auditdomain.Service
	dealerSvc      dealerdomain.Service
	identitySvc    identitydomain.Service
	affiliationSvc affiliationdomain.Service
	conflictSvc    conflictdomain.Service
	transferSvc    transferdomain.Service
	onboardingSvc  onboardingdomain.Service
	dashboardSvc   dashboarddomain.Service
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Log            *zap.Logger
	Clock          clock.Clock
	Rules          *config.RulesHolder
	AuthzSvc       authorization.Service
	AuditSvc       auditdomain.Service
	DealerSvc      dealerdomain.Service
	IdentitySvc    identitydomain.Service
	AffiliationSvc affiliationdomain.Service
	ConflictSvc    conflictdomain.Service
	TransferSvc    transferdomain.Service
	OnboardingSvc  onboardingdomain.Service
	DashboardSvc   dashboarddomain.Service
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		log:            p.Log.Named("http.server"),
		clock:          p.Clock,
		rules:          p.Rules,
		authzSvc:       p.AuthzSvc,
		auditSvc:       p.AuditSvc,
		dealerSvc:      p.DealerSvc,
		identitySvc:    p.IdentitySvc,
		affiliationSvc: p.AffiliationSvc,
		conflictSvc:    p.ConflictSvc,
		transferSvc:    p.TransferSvc,
		onboardingSvc:  p.OnboardingSvc,
		dashboardSvc:   p.DashboardSvc,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/metrics/home", s.GetHomeMetrics)

	// -------- Employees --------
	api.POST("/employees", RequireActor(), s.authorize(authorization.ObjectEmployee, authorization.ActionEmployeeCreate), s.CreateEmployee)
	api.GET("/employees/search", s.SearchEmployees)
	api.GET("/employees/similar", s.SimilarEmployees)
	api.PATCH("/employments/:id/end", RequireActor(), s.authorize(authorization.ObjectEmployee, authorization.ActionEmployeeEnd), s.EndEmployment)

	// -------- Clients --------
	api.POST("/clients", RequireActor(), s.authorize(authorization.ObjectClient, authorization.ActionClientCreate), s.CreateClient)
	api.GET("/clients/search", s.SearchClients)
	api.GET("/clients/similar", s.SimilarClients)
	api.POST("/clients/:id/vehicles", RequireActor(), s.authorize(authorization.ObjectClient, authorization.ActionClientAddVehicle), s.AddVehicle)

	// -------- Dealer listings --------
	api.GET("/dealers/:dealerId/employees", s.ListDealerEmployees)
	api.GET("/dealers/:dealerId/clients", s.ListDealerClients)

	// -------- Search aliases --------
	api.GET("/search/employee", s.SearchEmployees)
	api.GET("/search/client", s.SearchClients)

	// -------- Transfers --------
	api.GET("/transfers", s.ListTransfers)
	api.POST("/transfers", RequireActor(), s.authorize(authorization.ObjectTransfer, authorization.ActionTransferCreate), s.CreateTransfer)
	api.GET("/transfers/:id", s.GetTransfer)
	api.POST("/transfers/:id/approve", RequireActor(), s.authorize(authorization.ObjectTransfer, authorization.ActionTransferApprove), s.ApproveTransfer)
	api.POST("/transfers/:id/reject", RequireActor(), s.authorize(authorization.ObjectTransfer, authorization.ActionTransferReject), s.RejectTransfer)
	api.POST("/transfers/:id/cancel", RequireActor(), s.authorize(authorization.ObjectTransfer, authorization.ActionTransferCancel), s.CancelTransfer)

	// -------- Audit --------
	api.GET("/audit", s.ListAuditLogs)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")

	admin.GET("/dealers", s.ListDealers)
	admin.POST("/dealers", RequireActor(), s.authorize(authorization.ObjectDealer, authorization.ActionDealerCreate), s.CreateDealer)
	admin.GET("/dealers/:id", s.GetDealer)
	admin.PATCH("/dealers/:id", RequireActor(), s.authorize(authorization.ObjectDealer, authorization.ActionDealerUpdate), s.UpdateDealer)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
