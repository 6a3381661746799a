package membership

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/membership/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("membership",
	fx.Provide(repository.Provide),
)
