package memory

import (
	"container/list"
	"sync"
	"time"

	"github.com/Gunvolt24/ordersync/pkg/metrics"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// lruTTL — LRU с абсолютным TTL записи. Значения хранятся и отдаются копиями (clone).
type lruTTL[K comparable, V any] struct {
	name     string // метка cache в метриках
	capacity int
	ttl      time.Duration
	clone    func(V) V
	now      func() time.Time

	ll    *list.List
	index map[K]*list.Element

	mu sync.Mutex
}

func newLRU[K comparable, V any](name string, capacity int, ttl time.Duration, clone func(V) V) *lruTTL[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &lruTTL[K, V]{
		name:     name,
		capacity: capacity,
		ttl:      ttl,
		clone:    clone,
		now:      time.Now,
		ll:       list.New(),
		index:    make(map[K]*list.Element),
	}
}

func (c *lruTTL[K, V]) get(key K) (V, bool) {
	var zero V
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		metrics.CacheOps.WithLabelValues(c.name, "miss").Inc()
		return zero, false
	}
	ent := elem.Value.(*entry[K, V])
	if c.isExpired(ent, now) {
		metrics.CacheOps.WithLabelValues(c.name, "expired").Inc()
		c.removeElement(elem)
		return zero, false
	}
	c.ll.MoveToFront(elem)

	metrics.CacheOps.WithLabelValues(c.name, "hit").Inc()
	return c.clone(ent.value), true
}

func (c *lruTTL[K, V]) set(key K, value V) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		ent := elem.Value.(*entry[K, V])
		ent.value = c.clone(value)
		ent.expiresAt = c.expiryFrom(now)
		c.ll.MoveToFront(elem)
		return
	}

	c.pruneExpiredFromBack(now)

	elem := c.ll.PushFront(&entry[K, V]{
		key:       key,
		value:     c.clone(value),
		expiresAt: c.expiryFrom(now),
	})
	c.index[key] = elem

	if c.ll.Len() > c.capacity {
		c.evictLRU()
	}
	c.updateSize()
}

func (c *lruTTL[K, V]) delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	metrics.CacheOps.WithLabelValues(c.name, "deleted").Inc()
	return true
}

// purge — удалить все записи.
func (c *lruTTL[K, V]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.index = make(map[K]*list.Element)
	c.updateSize()
}

func (c *lruTTL[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *lruTTL[K, V]) evictLRU() {
	if back := c.ll.Back(); back != nil {
		c.removeElement(back)
		metrics.CacheOps.WithLabelValues(c.name, "evicted").Inc()
	}
}

// removeElement — вызывается под мьютексом.
func (c *lruTTL[K, V]) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry[K, V])
	delete(c.index, ent.key)
	c.ll.Remove(elem)
	c.updateSize()
}

func (c *lruTTL[K, V]) updateSize() {
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.index)))
}

func (c *lruTTL[K, V]) isExpired(ent *entry[K, V], now time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return now.After(ent.expiresAt)
}

func (c *lruTTL[K, V]) expiryFrom(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

// pruneExpiredFromBack — хвост списка самый старый по доступу; снимаем истёкшие, пока встречаются.
func (c *lruTTL[K, V]) pruneExpiredFromBack(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for {
		back := c.ll.Back()
		if back == nil {
			return
		}
		if !c.isExpired(back.Value.(*entry[K, V]), now) {
			return
		}
		c.removeElement(back)
		metrics.CacheOps.WithLabelValues(c.name, "expired").Inc()
	}
}
