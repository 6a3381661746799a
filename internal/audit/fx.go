package audit

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/audit/repository"
	"github.com/Mayne0963/otw-chi-sub000/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
