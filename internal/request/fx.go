package request

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/request/service"
	"go.uber.org/fx"
)

var Module = fx.Module("request.service",
	fx.Provide(service.NewService),
)
