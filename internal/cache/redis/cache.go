// Package redis — кэш заказов и страниц поиска в Redis.
package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// Проверка, что Cache удовлетворяет интерфейсам кэша.
var (
	_ ports.OrderCache  = (*Cache)(nil)
	_ ports.SearchCache = (*Cache)(nil)
)

// Options — параметры кэша.
type Options struct {
	Prefix    string        // префикс ключей, по умолчанию "ordersync"
	TTL       time.Duration // TTL заказа
	SearchTTL time.Duration // TTL страницы поиска
}

// Cache — заказы под "<prefix>:order:<id>", их версии инвалидации под "<prefix>:order:<id>:v",
// страницы под "<prefix>:search:<gen>:<sha1(key)>", поколение поиска: счётчик "<prefix>:search:gen".
type Cache struct {
	rdb  goredis.UniversalClient
	opts Options
}

// NewClient — клиент Redis с проверкой соединения.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// New — кэш поверх готового клиента.
func New(rdb goredis.UniversalClient, opts Options) *Cache {
	if opts.Prefix == "" {
		opts.Prefix = "ordersync"
	}
	return &Cache{rdb: rdb, opts: opts}
}

func (c *Cache) orderKey(id int64) string {
	return c.opts.Prefix + ":order:" + strconv.FormatInt(id, 10)
}

func (c *Cache) versionKey(id int64) string { return c.orderKey(id) + ":v" }

// versionTTL — версия должна пережить любое заполнение, начатое до её увеличения.
func (c *Cache) versionTTL() time.Duration {
	if c.opts.TTL <= 0 {
		return 0
	}
	return max(2*c.opts.TTL, time.Hour)
}

// setIfVersion: KEYS[1] — заказ, KEYS[2] — версия; ARGV — данные, ожидаемая версия, TTL в мс.
var setIfVersion = goredis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if not cur then cur = '0' end
if cur ~= ARGV[2] then return 0 end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

func (c *Cache) genKey() string { return c.opts.Prefix + ":search:gen" }

func (c *Cache) pageKey(gen int64, key string) string {
	sum := sha1.Sum([]byte(key))
	return c.opts.Prefix + ":search:" + strconv.FormatInt(gen, 10) + ":" + hex.EncodeToString(sum[:])
}

// Get — заказ по id.
func (c *Cache) Get(ctx context.Context, id int64) (*domain.Order, bool, error) {
	raw, err := c.rdb.Get(ctx, c.orderKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.CacheOps.WithLabelValues("order", "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get order %d: %w", id, err)
	}

	var o domain.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		// битая запись: считаем промахом и удаляем
		_ = c.rdb.Del(ctx, c.orderKey(id)).Err()
		return nil, false, fmt.Errorf("redis decode order %d: %w", id, err)
	}
	metrics.CacheOps.WithLabelValues("order", "hit").Inc()
	return &o, true, nil
}

// Set — сохранить заказ с TTL.
func (c *Cache) Set(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == 0 {
		return nil
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("redis encode order %d: %w", order.ID, err)
	}
	if err := c.rdb.Set(ctx, c.orderKey(order.ID), raw, c.opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis set order %d: %w", order.ID, err)
	}
	return nil
}

// Version — версия инвалидации заказа (0, если ключа нет).
func (c *Cache) Version(ctx context.Context, id int64) (int64, error) {
	v, err := c.rdb.Get(ctx, c.versionKey(id)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get order version %d: %w", id, err)
	}
	return v, nil
}

// SetIfVersion — сохранить заказ одним скриптом, если его версия всё ещё равна version.
func (c *Cache) SetIfVersion(ctx context.Context, order *domain.Order, version int64) (bool, error) {
	if order == nil || order.ID == 0 {
		return false, nil
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return false, fmt.Errorf("redis encode order %d: %w", order.ID, err)
	}
	keys := []string{c.orderKey(order.ID), c.versionKey(order.ID)}
	stored, err := setIfVersion.Run(ctx, c.rdb, keys, raw, version, c.opts.TTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis set order %d v%d: %w", order.ID, version, err)
	}
	if stored == 0 {
		metrics.CacheOps.WithLabelValues("order", "stale_fill_skipped").Inc()
		return false, nil
	}
	return true, nil
}

// Delete — удалить заказ и увеличить его версию в одной транзакции; отсутствие ключа не ошибка.
func (c *Cache) Delete(ctx context.Context, id int64) error {
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, c.orderKey(id))
		p.Incr(ctx, c.versionKey(id))
		if ttl := c.versionTTL(); ttl > 0 {
			p.PExpire(ctx, c.versionKey(id), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis del order %d: %w", id, err)
	}
	metrics.CacheOps.WithLabelValues("order", "deleted").Inc()
	return nil
}

// WarmUp — запись пачки заказов одним pipeline.
func (c *Cache) WarmUp(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for _, o := range orders {
			if o == nil || o.ID == 0 {
				continue
			}
			raw, err := json.Marshal(o)
			if err != nil {
				return err
			}
			p.Set(ctx, c.orderKey(o.ID), raw, c.opts.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis warm up: %w", err)
	}
	return nil
}

// Ping — доступность Redis.
func (c *Cache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

// Generation — текущее поколение страниц поиска (0, если счётчика ещё нет).
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get search generation: %w", err)
	}
	return gen, nil
}

// GetPage — страница поиска под поколением gen.
func (c *Cache) GetPage(ctx context.Context, gen int64, key string) (*domain.OrderPage, bool, error) {
	raw, err := c.rdb.Get(ctx, c.pageKey(gen, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.CacheOps.WithLabelValues("search", "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get page: %w", err)
	}
	var page domain.OrderPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, false, fmt.Errorf("redis decode page: %w", err)
	}
	metrics.CacheOps.WithLabelValues("search", "hit").Inc()
	return &page, true, nil
}

// SetPage — сохранить страницу под поколением gen.
// Если поколение уже сменилось, ключ недостижим и истечёт по SearchTTL.
func (c *Cache) SetPage(ctx context.Context, gen int64, key string, page *domain.OrderPage) error {
	if page == nil {
		return nil
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("redis encode page: %w", err)
	}
	if err := c.rdb.Set(ctx, c.pageKey(gen, key), raw, c.opts.SearchTTL).Err(); err != nil {
		return fmt.Errorf("redis set page: %w", err)
	}
	return nil
}

// InvalidateSearches — INCR поколения.
func (c *Cache) InvalidateSearches(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.genKey()).Err(); err != nil {
		return fmt.Errorf("redis incr search generation: %w", err)
	}
	metrics.CacheOps.WithLabelValues("search", "invalidated").Inc()
	return nil
}
