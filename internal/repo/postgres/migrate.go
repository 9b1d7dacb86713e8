package postgres

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// gooseLogger — адаптер ports.Logger под goose.Logger.
type gooseLogger struct {
	ctx context.Context
	log ports.Logger
}

func (l gooseLogger) Printf(format string, v ...any) { l.log.Infof(l.ctx, "goose: "+format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.log.Errorf(l.ctx, "goose: "+format, v...) }

// Migrate — применяет встроенные миграции (migrations/*.sql) через goose.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log ports.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{ctx: ctx, log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
