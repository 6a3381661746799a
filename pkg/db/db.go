package db

import (
	"context"
	"fmt"

	"github.com/Mayne0963/otw-chi-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open establishes the database handle and ties its lifetime to the fx app:
// opened before the server starts serving, closed on shutdown.
func Open(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// Serialized writes; sqlite has no row-level locks.
		if err := conn.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			log.Info("closing database")
			return sqlDB.Close()
		},
	})

	log.Info("database opened", zap.String("driver", cfg.DBDriver))
	return conn, nil
}

func dialectorFor(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(cfg.DBDSN), nil
	case "sqlite", "":
		return sqlite.Open(cfg.DBDSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// SupportsRowLocks reports whether the connected dialect honors FOR UPDATE.
func SupportsRowLocks(conn *gorm.DB) bool {
	return conn != nil && conn.Dialector.Name() == "postgres"
}

// ForUpdate returns the row-lock suffix for the connected dialect. sqlite
// serializes writers at the file level, so the suffix is empty there.
func ForUpdate(conn *gorm.DB) string {
	if SupportsRowLocks(conn) {
		return " FOR UPDATE"
	}
	return ""
}
