package wallet

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/wallet/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("wallet",
	fx.Provide(repository.Provide),
)
