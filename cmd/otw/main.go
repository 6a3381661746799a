package main

import (
	"github.com/Mayne0963/otw-chi-sub000/internal/allocation"
	"github.com/Mayne0963/otw-chi-sub000/internal/audit"
	"github.com/Mayne0963/otw-chi-sub000/internal/clock"
	"github.com/Mayne0963/otw-chi-sub000/internal/config"
	"github.com/Mayne0963/otw-chi-sub000/internal/events"
	"github.com/Mayne0963/otw-chi-sub000/internal/ledger"
	"github.com/Mayne0963/otw-chi-sub000/internal/membership"
	"github.com/Mayne0963/otw-chi-sub000/internal/migration"
	"github.com/Mayne0963/otw-chi-sub000/internal/observability"
	"github.com/Mayne0963/otw-chi-sub000/internal/plan"
	"github.com/Mayne0963/otw-chi-sub000/internal/request"
	"github.com/Mayne0963/otw-chi-sub000/internal/seed"
	"github.com/Mayne0963/otw-chi-sub000/internal/server"
	"github.com/Mayne0963/otw-chi-sub000/internal/wallet"
	"github.com/Mayne0963/otw-chi-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.SeedDefaultPlans {
				return seed.EnsureDefaultPlans(conn)
			}
			return nil
		}),
		wallet.Module,
		ledger.Module,
		plan.Module,
		membership.Module,
		events.Module,
		audit.Module,
		allocation.Module,
		request.Module,
		server.Module,
	)
	app.Run()
}
