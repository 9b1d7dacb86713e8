package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/meilisearch/meilisearch-go"

	"github.com/Gunvolt24/ordersync/config"
	cachemem "github.com/Gunvolt24/ordersync/internal/cache/memory"
	rediscache "github.com/Gunvolt24/ordersync/internal/cache/redis"
	"github.com/Gunvolt24/ordersync/internal/repo/postgres"
	"github.com/Gunvolt24/ordersync/internal/search/meili"
	"github.com/Gunvolt24/ordersync/internal/usecase"
	"github.com/Gunvolt24/ordersync/pkg/logger"
	"github.com/Gunvolt24/ordersync/pkg/retry"
	"github.com/Gunvolt24/ordersync/pkg/validate"
)

// CLI-приложение для полной пересборки поискового индекса из хранилища записей.
func main() {
	batch := flag.Int("batch", usecase.DefaultReindexBatch, "orders per upsert batch")
	flag.Parse()

	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, *batch); err != nil {
		fmt.Fprintf(os.Stderr, "reindex: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, batch int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg, cleanup, err := logger.NewZapLogger(cfg.Logger.IsProd, cfg.Logger.Level)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.ConnectTimeout)
	if err != nil {
		return err
	}
	defer pool.Close()

	client := meilisearch.New(cfg.Search.URL, meilisearch.WithAPIKey(cfg.Search.APIKey))
	index := meili.New(client, meili.Options{
		IndexUID:     cfg.Search.Index,
		WaitForTasks: true,
		MaxTotalHits: cfg.Search.MaxTotalHits,
	}, logg)
	if err := retry.UntilTimeout(ctx, cfg.Search.ConnectTimeout, index.EnsureIndex); err != nil {
		return err
	}

	// после пересборки страницы поиска в общем кэше должны устареть
	deps := usecase.Deps{
		Repo:        postgres.NewOrderRepository(pool),
		Index:       index,
		Cache:       cachemem.NewOrderCache(1, cfg.Cache.TTL),
		SearchCache: cachemem.NewPageCache(1, cfg.Cache.SearchTTL),
		Validator:   validate.NewOrderValidator(),
		Log:         logg,
	}
	if strings.EqualFold(cfg.Cache.Driver, "redis") {
		rdb, err := rediscache.NewClient(ctx, cfg.Cache.Addr(), cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		c := rediscache.New(rdb, rediscache.Options{TTL: cfg.Cache.TTL, SearchTTL: cfg.Cache.SearchTTL})
		deps.Cache, deps.SearchCache = c, c
	}
	svc := usecase.NewOrderService(deps, usecase.DefaultOptions())

	n, err := svc.ReindexAll(ctx, batch)
	if err != nil {
		return err
	}
	logg.Infof(ctx, "reindex done: %d orders", n)
	return nil
}
