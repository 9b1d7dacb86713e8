package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
)

// Проверка, что OrderCache удовлетворяет интерфейсу OrderCache.
var _ ports.OrderCache = (*OrderCache)(nil)

// minVersionSlots — нижняя граница числа отслеживаемых версий.
const minVersionSlots = 4096

// OrderCache — LRU+TTL кэш заказов в памяти процесса.
// Версии инвалидации хранятся в отдельном LRU без TTL; только что увеличенная версия
// всегда в его голове.
type OrderCache struct {
	mu       sync.Mutex // Delete и SetIfVersion атомарны относительно друг друга
	lru      *lruTTL[int64, *domain.Order]
	versions *lruTTL[int64, int64]
}

// NewOrderCache — capacity <= 0 трактуется как 1, ttl <= 0 — без истечения.
func NewOrderCache(capacity int, ttl time.Duration) *OrderCache {
	slots := max(4*capacity, minVersionSlots)
	return &OrderCache{
		lru:      newLRU[int64, *domain.Order]("order", capacity, ttl, (*domain.Order).Clone),
		versions: newLRU[int64, int64]("order_version", slots, 0, func(v int64) int64 { return v }),
	}
}

// Get — копия заказа при попадании.
func (c *OrderCache) Get(_ context.Context, id int64) (*domain.Order, bool, error) {
	o, ok := c.lru.get(id)
	return o, ok, nil
}

// Set — сохранить копию заказа.
func (c *OrderCache) Set(_ context.Context, order *domain.Order) error {
	if order == nil || order.ID == 0 {
		return nil
	}
	c.lru.set(order.ID, order)
	return nil
}

// Version — текущая версия инвалидации id.
func (c *OrderCache) Version(_ context.Context, id int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.versions.get(id)
	return v, nil
}

// SetIfVersion — сохранить копию заказа, если с момента чтения version его не сбрасывали.
func (c *OrderCache) SetIfVersion(_ context.Context, order *domain.Order, version int64) (bool, error) {
	if order == nil || order.ID == 0 {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, _ := c.versions.get(order.ID); cur != version {
		metrics.CacheOps.WithLabelValues("order", "stale_fill_skipped").Inc()
		return false, nil
	}
	c.lru.set(order.ID, order)
	return true, nil
}

// Delete — удалить запись по id и увеличить её версию.
func (c *OrderCache) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, _ := c.versions.get(id)
	c.versions.set(id, v+1)
	c.lru.delete(id)
	return nil
}

// WarmUp — массовая загрузка с учётом отмены контекста.
func (c *OrderCache) WarmUp(ctx context.Context, orders []*domain.Order) error {
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Set(ctx, order); err != nil {
			return err
		}
	}
	return nil
}

// Ping — кэш в памяти всегда доступен.
func (c *OrderCache) Ping(context.Context) error { return nil }

// Len — число записей (включая ещё не вычищенные истёкшие).
func (c *OrderCache) Len() int { return c.lru.len() }
