package server

import (
	"context"
	"net/http"

	allocationdomain "github.com/Mayne0963/otw-chi-sub000/internal/allocation/domain"
	"github.com/Mayne0963/otw-chi-sub000/internal/clock"
	"github.com/Mayne0963/otw-chi-sub000/internal/config"
	ledgerdomain "github.com/Mayne0963/otw-chi-sub000/internal/ledger/domain"
	membershiprepo "github.com/Mayne0963/otw-chi-sub000/internal/membership/repository"
	"github.com/Mayne0963/otw-chi-sub000/internal/observability/logger"
	planrepo "github.com/Mayne0963/otw-chi-sub000/internal/plan/repository"
	requestdomain "github.com/Mayne0963/otw-chi-sub000/internal/request/domain"
	walletrepo "github.com/Mayne0963/otw-chi-sub000/internal/wallet/repository"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Clock       clock.Clock
	Wallets     walletrepo.Repository
	Ledger      ledgerdomain.Service
	Plans       planrepo.Repository
	Memberships membershiprepo.Repository
	Allocation  allocationdomain.Service
	Requests    requestdomain.Service
}

type Server struct {
	cfg           config.Config
	log           *zap.Logger
	db            *gorm.DB
	clock         clock.Clock
	wallets       walletrepo.Repository
	ledger        ledgerdomain.Service
	plans         planrepo.Repository
	memberships   membershiprepo.Repository
	allocationSvc allocationdomain.Service
	requestSvc    requestdomain.Service
	submitLimiter *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:           p.Config,
		log:           p.Log.Named("server"),
		db:            p.DB,
		clock:         p.Clock,
		wallets:       p.Wallets,
		ledger:        p.Ledger,
		plans:         p.Plans,
		memberships:   p.Memberships,
		allocationSvc: p.Allocation,
		requestSvc:    p.Requests,
		submitLimiter: newRateLimiter(p.Config.SubmitRateLimit, p.Config.SubmitRateWindow, p.Clock),
	}
}

// Router wires every route. Split out from the lifecycle hook so handler
// tests drive the real routing table.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	router.GET("/healthz", s.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/billing", s.HandleBillingEvent)

	v1 := router.Group("/v1", s.requireUser())
	{
		v1.GET("/plans", s.ListPlans)
		v1.GET("/wallet", s.GetWallet)
		v1.GET("/wallet/ledger", s.GetWalletLedger)
		v1.POST("/quotes", s.PreviewQuote)
		v1.POST("/requests", s.SubmitRequest)
		v1.GET("/requests", s.ListRequests)
		v1.GET("/requests/:id", s.GetRequest)
		v1.POST("/requests/:id/cancel", s.CancelRequest)
	}

	internal := router.Group("/internal")
	{
		internal.POST("/requests/:id/assign", s.AssignRequest)
		internal.POST("/requests/:id/arrived", s.MarkRequestArrived)
		internal.POST("/requests/:id/delivered", s.MarkRequestDelivered)
	}

	return router
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RunHTTPServer),
)

func RunHTTPServer(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
