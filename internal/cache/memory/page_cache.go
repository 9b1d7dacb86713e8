package memory

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
)

// Проверка, что PageCache удовлетворяет интерфейсу SearchCache.
var _ ports.SearchCache = (*PageCache)(nil)

// PageCache — кэш страниц поиска с инвалидацией по поколению.
type PageCache struct {
	gen atomic.Int64
	lru *lruTTL[string, *domain.OrderPage]
}

// NewPageCache — capacity страниц, ttl страницы.
func NewPageCache(capacity int, ttl time.Duration) *PageCache {
	return &PageCache{lru: newLRU[string, *domain.OrderPage]("search", capacity, ttl, (*domain.OrderPage).Clone)}
}

func pageKey(gen int64, key string) string { return strconv.FormatInt(gen, 10) + ":" + key }

// Generation — текущее поколение.
func (c *PageCache) Generation(context.Context) (int64, error) { return c.gen.Load(), nil }

// GetPage — страница, сохранённая под поколением gen.
func (c *PageCache) GetPage(_ context.Context, gen int64, key string) (*domain.OrderPage, bool, error) {
	p, ok := c.lru.get(pageKey(gen, key))
	return p, ok, nil
}

// SetPage — сохраняет страницу, только если поколение ещё актуально.
func (c *PageCache) SetPage(_ context.Context, gen int64, key string, page *domain.OrderPage) error {
	if page == nil || gen != c.gen.Load() {
		return nil
	}
	c.lru.set(pageKey(gen, key), page)
	return nil
}

// InvalidateSearches — новое поколение; старые страницы сразу освобождаются.
func (c *PageCache) InvalidateSearches(context.Context) error {
	c.gen.Add(1)
	c.lru.purge()
	metrics.CacheOps.WithLabelValues("search", "invalidated").Inc()
	return nil
}
