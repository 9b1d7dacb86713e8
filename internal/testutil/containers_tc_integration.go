//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	pgrepo "github.com/Gunvolt24/ordersync/internal/repo/postgres"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/testcontainers/testcontainers-go/wait"
)

var tcLogger = log.New(os.Stdout, "[tc] ", log.LstdFlags)

// lifecycleLog — одна строка на каждый этап жизни контейнера.
func lifecycleLog(l *log.Logger) tc.ContainerLifecycleHooks {
	stage := func(name string) []tc.ContainerHook {
		return []tc.ContainerHook{func(_ context.Context, c tc.Container) error {
			id := c.GetContainerID()
			if len(id) > 12 {
				id = id[:12]
			}
			l.Printf("%-11s %s", name, id)
			return nil
		}}
	}
	return tc.ContainerLifecycleHooks{
		PreCreates: []tc.ContainerRequestHook{func(_ context.Context, req tc.ContainerRequest) error {
			l.Printf("%-11s %s", "create", req.Image)
			return nil
		}},
		PostStarts:     stage("started"),
		PostReadies:    stage("ready"),
		PreTerminates:  stage("terminating"),
		PostTerminates: stage("terminated"),
	}
}

// PGContainer — Postgres с готовым пулом (миграции применяет вызывающий).
type PGContainer struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	DSN       string
}

// StartPostgresTC — поднимает postgres:16-alpine; stop закрывает пул и гасит контейнер.
// Пул создаётся тем же pgrepo.NewPool, что и в сервисе.
func StartPostgresTC(ctx context.Context) (*PGContainer, func(context.Context) error, error) {
	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		tc.WithLifecycleHooks(lifecycleLog(tcLogger)),
		postgres.WithDatabase("ordersync"),
		postgres.WithUsername("ordersync"),
		postgres.WithPassword("ordersync"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run postgres: %w", err)
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		var pool *pgxpool.Pool
		if pool, err = pgrepo.NewPool(ctx, dsn, 5, 30*time.Second); err == nil {
			stop := func(c context.Context) error {
				pool.Close()
				return pg.Terminate(c)
			}
			return &PGContainer{Container: pg, Pool: pool, DSN: dsn}, stop, nil
		}
	}
	_ = pg.Terminate(context.WithoutCancel(ctx))
	return nil, nil, fmt.Errorf("postgres container: %w", err)
}

// KafkaEnv — Redpanda для очереди ремонта зеркал; BaseTopic задаёт префикс топиков теста.
type KafkaEnv struct {
	Container *redpanda.Container
	Brokers   []string
	BaseTopic string
}

// StartKafkaTC — поднимает одноброкерный Redpanda (топики создаёт RepairTopic).
func StartKafkaTC(ctx context.Context, baseTopic string) (*KafkaEnv, func(context.Context) error, error) {
	rp, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v23.3.8",
		tc.WithLifecycleHooks(lifecycleLog(tcLogger)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run redpanda: %w", err)
	}

	seed, err := rp.KafkaSeedBroker(ctx)
	if err != nil {
		_ = tc.TerminateContainer(rp)
		return nil, nil, fmt.Errorf("redpanda seed broker: %w", err)
	}

	stop := func(_ context.Context) error { return tc.TerminateContainer(rp) }
	return &KafkaEnv{Container: rp, Brokers: []string{seed}, BaseTopic: baseTopic}, stop, nil
}

// RedisEnv — Redis для кэша.
type RedisEnv struct {
	Container *tcredis.RedisContainer
	Addr      string // host:port
}

// StartRedisTC — поднимает redis:7-alpine.
func StartRedisTC(ctx context.Context) (*RedisEnv, func(context.Context) error, error) {
	rc, err := tcredis.Run(ctx, "redis:7-alpine", tc.WithLifecycleHooks(lifecycleLog(tcLogger)))
	if err != nil {
		return nil, nil, fmt.Errorf("run redis: %w", err)
	}
	host, err := rc.Host(ctx)
	if err != nil {
		_ = tc.TerminateContainer(rc)
		return nil, nil, fmt.Errorf("redis host: %w", err)
	}
	port, err := rc.MappedPort(ctx, "6379/tcp")
	if err != nil {
		_ = tc.TerminateContainer(rc)
		return nil, nil, fmt.Errorf("redis port: %w", err)
	}
	stop := func(_ context.Context) error { return tc.TerminateContainer(rc) }
	return &RedisEnv{Container: rc, Addr: net.JoinHostPort(host, port.Port())}, stop, nil
}

// MeiliEnv — Meilisearch для поискового индекса.
type MeiliEnv struct {
	Container tc.Container
	URL       string
	APIKey    string
}

// StartMeiliTC — поднимает getmeili/meilisearch с мастер-ключом.
func StartMeiliTC(ctx context.Context) (*MeiliEnv, func(context.Context) error, error) {
	const masterKey = "itest-master-key-0123456789"

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "getmeili/meilisearch:v1.11",
			ExposedPorts: []string{"7700/tcp"},
			Env: map[string]string{
				"MEILI_MASTER_KEY":   masterKey,
				"MEILI_NO_ANALYTICS": "true",
				"MEILI_ENV":          "development",
			},
			LifecycleHooks: []tc.ContainerLifecycleHooks{lifecycleLog(tcLogger)},
			WaitingFor:     wait.ForHTTP("/health").WithPort("7700/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("run meilisearch: %w", err)
	}
	host, err := c.Host(ctx)
	if err != nil {
		_ = tc.TerminateContainer(c)
		return nil, nil, fmt.Errorf("meili host: %w", err)
	}
	port, err := c.MappedPort(ctx, "7700/tcp")
	if err != nil {
		_ = tc.TerminateContainer(c)
		return nil, nil, fmt.Errorf("meili port: %w", err)
	}
	env := &MeiliEnv{Container: c, URL: "http://" + net.JoinHostPort(host, port.Port()), APIKey: masterKey}
	stop := func(_ context.Context) error { return tc.TerminateContainer(c) }
	return env, stop, nil
}
