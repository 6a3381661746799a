package allocation

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/allocation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("allocation.service",
	fx.Provide(service.NewService),
)
