package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Gunvolt24/ordersync/config"
	cachemem "github.com/Gunvolt24/ordersync/internal/cache/memory"
	rediscache "github.com/Gunvolt24/ordersync/internal/cache/redis"
	"github.com/Gunvolt24/ordersync/internal/kafka"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/internal/repo/postgres"
	"github.com/Gunvolt24/ordersync/internal/search/meili"
	searchmem "github.com/Gunvolt24/ordersync/internal/search/memory"
	rest "github.com/Gunvolt24/ordersync/internal/transport/http"
	"github.com/Gunvolt24/ordersync/internal/usecase"
	"github.com/Gunvolt24/ordersync/pkg/logger"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
	"github.com/Gunvolt24/ordersync/pkg/retry"
	"github.com/Gunvolt24/ordersync/pkg/telemetry"
	"github.com/Gunvolt24/ordersync/pkg/validate"
)

// Драйверы зеркал.
const (
	DriverMeili  = "meili"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// App — собранное приложение и его внешние интерфейсы (HTTP, consumer очереди ремонта).
type App struct {
	Logger          ports.Logger          // логгер
	HTTPServer      *http.Server          // HTTP-сервер
	KafkaConsumer   ports.MessageConsumer // консьюмер очереди ремонта
	gracefulTimeout time.Duration         // время ожидания завершения HTTP-сервера
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// closer — ресурс, который закрывается при остановке.
type closer struct {
	name  string
	close func() error
}

// closeAll — закрывает ресурсы в обратном порядке.
func closeAll(ctx context.Context, log ports.Logger, list []closer) {
	for i := len(list) - 1; i >= 0; i-- {
		if err := list[i].close(); err != nil {
			log.Warnf(ctx, "close %s: %v", list[i].name, err)
		}
	}
}

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// mirrorOptions — параметры сервиса из конфигурации.
func mirrorOptions(cfg *config.Config) usecase.Options {
	opts := usecase.DefaultOptions()
	opts.Mirror = retry.Policy{Attempts: cfg.Mirror.Attempts, Initial: cfg.Mirror.RetryInitial, Max: cfg.Mirror.RetryMax}
	opts.MirrorTimeout = cfg.Mirror.Timeout
	opts.FallbackToStore = cfg.Search.FallbackToStore
	return opts
}

// buildIndex — поисковый индекс по драйверу.
func buildIndex(ctx context.Context, cfg config.Search, log ports.Logger) (ports.SearchIndex, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverMeili:
		client := meilisearch.New(cfg.URL, meilisearch.WithAPIKey(cfg.APIKey))
		ix := meili.New(client, meili.Options{
			IndexUID:     cfg.Index,
			WaitForTasks: cfg.WaitForTasks,
			MaxTotalHits: cfg.MaxTotalHits,
		}, log)
		// Meilisearch может подниматься одновременно с сервисом.
		if err := retry.UntilTimeout(ctx, cfg.ConnectTimeout, ix.EnsureIndex); err != nil {
			return nil, fmt.Errorf("ensure meili index: %w", err)
		}
		return ix, nil
	case DriverMemory:
		return searchmem.NewIndex(), nil
	default:
		return nil, fmt.Errorf("unknown search driver %q", cfg.Driver)
	}
}

// buildCaches — кэш заказов и кэш страниц поиска по драйверу.
func buildCaches(ctx context.Context, cfg config.Cache) (ports.OrderCache, ports.SearchCache, *closer, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverRedis:
		var rdb *goredis.Client
		err := retry.UntilTimeout(ctx, cfg.ConnectTimeout, func(ctx context.Context) error {
			var cErr error
			rdb, cErr = rediscache.NewClient(ctx, cfg.Addr(), cfg.Password, cfg.DB)
			return cErr
		})
		if err != nil {
			return nil, nil, nil, err
		}
		c := rediscache.New(rdb, rediscache.Options{TTL: cfg.TTL, SearchTTL: cfg.SearchTTL})
		return c, c, &closer{name: "redis", close: rdb.Close}, nil
	case DriverMemory:
		return cachemem.NewOrderCache(cfg.Capacity, cfg.TTL), cachemem.NewPageCache(cfg.SearchCapacity, cfg.SearchTTL), nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим и уровень задаются конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd, cfg.Logger.Level)
	if err != nil {
		return nil, func() {}, err
	}
	closers := []closer{{name: "logger", close: cleanupLogger}}
	fail := func(err error) (*App, Cleanup, error) {
		logg.Errorf(ctx, "bootstrap failed: %v", err)
		closeAll(ctx, logg, closers)
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Пул подключений Postgres (ждёт готовности БД до ConnectTimeout).
	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.ConnectTimeout)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closer{name: "postgres", close: func() error { pool.Close(); return nil }})

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, logg); err != nil {
			return fail(err)
		}
	}

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию: no-op.
	if cfg.Tracing.Enabled {
		setup, tErr := telemetry.SetupTracing(ctx, telemetry.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			closers = append(closers, closer{name: "tracing", close: func() error { return setup(context.Background()) }})
		}
	}

	// Зеркала: поисковый индекс и кэш.
	index, err := buildIndex(ctx, cfg.Search, logg)
	if err != nil {
		return fail(err)
	}
	orderCache, searchCache, cacheCloser, err := buildCaches(ctx, cfg.Cache)
	if err != nil {
		return fail(err)
	}
	if cacheCloser != nil {
		closers = append(closers, *cacheCloser)
	}

	// Очередь ремонта зеркал.
	var repairs ports.RepairQueue
	if cfg.Kafka.Enabled {
		pub := kafka.NewRepairPublisher(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		closers = append(closers, closer{name: "kafka publisher", close: pub.Close})
		repairs = pub
	}

	// Сборка доменного слоя.
	orderService := usecase.NewOrderService(usecase.Deps{
		Repo:        postgres.NewOrderRepository(pool),
		Index:       index,
		Cache:       orderCache,
		SearchCache: searchCache,
		Repairs:     repairs,
		Validator:   validate.NewOrderValidator(),
		Log:         logg,
	}, mirrorOptions(cfg))

	// Индекс в памяти пуст после старта: собираем его из хранилища.
	if strings.EqualFold(cfg.Search.Driver, DriverMemory) {
		n, err := orderService.ReindexAll(ctx, usecase.DefaultReindexBatch)
		if err != nil {
			return fail(fmt.Errorf("initial reindex: %w", err))
		}
		logg.Infof(ctx, "in-memory index built: %d orders", n)
	}

	// Прогрев кэша
	if n := cfg.Cache.WarmUpN; n > 0 {
		if err := orderService.WarmUpCache(ctx, n); err != nil {
			logg.Warnf(ctx, "warm-up cache failed: %v", err)
		}
	}

	// Консьюмер очереди ремонта.
	var consumer ports.MessageConsumer = idleConsumer{}
	if cfg.Kafka.Enabled {
		kafkaCfg := kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        cfg.Kafka.GroupID,
			Topic:          cfg.Kafka.Topic,
			StartOffset:    cfg.Kafka.StartOffset,
			ProcessTimeout: cfg.Kafka.ProcessTimeout,
			RetryInitial:   cfg.Kafka.RetryInitial,
			RetryMax:       cfg.Kafka.RetryMax,
		}
		if err := kafkaCfg.Validate(); err != nil {
			return fail(err)
		}
		c := kafka.NewConsumer(&kafkaCfg, orderService, logg)
		closers = append(closers, closer{name: "kafka consumer", close: c.Close})
		consumer = c
	}

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(orderService, logg, cfg.HTTP.HandlerTimeout)
	router := rest.NewRouter(httpHandler, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		KafkaConsumer:   consumer,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}

	cleanup := func() { closeAll(context.Background(), logg, closers) }
	return app, cleanup, nil
}

// idleConsumer — заглушка при выключенной очереди ремонта: ждёт остановки.
type idleConsumer struct{}

func (idleConsumer) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (idleConsumer) Close() error { return nil }

// Run — запускает HTTP-сервер и консьюмера; ждёт отмены контекста или ошибки и останавливает их.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// Запуск консьюмера.
	go func() {
		a.Logger.Infof(ctx, "repair consumer starting")
		if err := a.KafkaConsumer.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	// Запуск HTTP-сервера.
	go func() {
		a.Logger.Infof(ctx, "http server starting (addr=%s)", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Ожидание сигнала остановки или фоновой ошибки.
	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")
	case err := <-errCh:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.Logger.Infof(ctx, "background component stopped: %v", err)
		} else {
			a.Logger.Warnf(ctx, "background error: %v", err)
			runErr = err
		}
	}

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	// Корректная остановка HTTP-сервера.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}

	// Остановка консьюмера
	if err := a.KafkaConsumer.Close(); err != nil {
		a.Logger.Warnf(ctx, "repair consumer close error: %v", err)
	}

	a.Logger.Infof(ctx, "service stopped")
	return runErr
}
