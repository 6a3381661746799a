package plan

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/plan/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("plan",
	fx.Provide(repository.Provide),
)
