package events

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/events/service"
	"go.uber.org/fx"
)

var Module = fx.Module("events",
	fx.Provide(service.NewOutbox),
)
