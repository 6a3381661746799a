package observability

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/config"
	"github.com/Mayne0963/otw-chi-sub000/internal/observability/logger"
	"github.com/Mayne0963/otw-chi-sub000/internal/observability/metrics"
	"github.com/Mayne0963/otw-chi-sub000/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	logger.Module,
	tracing.Module,
	fx.Provide(func(cfg config.Config) *metrics.MilesMetrics {
		return metrics.MilesWithConfig(metrics.Config{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
		})
	}),
)
