// Package memory — поисковый индекс в памяти процесса (локальный запуск и тесты).
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/internal/search"
)

// Проверка, что Index удовлетворяет интерфейсу SearchIndex.
var _ ports.SearchIndex = (*Index)(nil)

// Index — потокобезопасный индекс; хранит и отдаёт копии заказов.
type Index struct {
	mu   sync.RWMutex
	docs map[int64]*domain.Order
}

// NewIndex — пустой индекс.
func NewIndex() *Index {
	return &Index{docs: make(map[int64]*domain.Order)}
}

// Upsert — вставка/замена документов.
func (ix *Index) Upsert(ctx context.Context, orders []*domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, o := range orders {
		if o == nil {
			continue
		}
		ix.docs[o.ID] = o.Clone()
	}
	return nil
}

// Delete — удаление документа по id.
func (ix *Index) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.Lock()
	delete(ix.docs, id)
	ix.mu.Unlock()
	return nil
}

// Search — полный перебор с общим предикатом фильтра.
func (ix *Index) Search(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	matched := make([]*domain.Order, 0)
	for _, o := range ix.docs {
		if search.Matches(o, filter) {
			matched = append(matched, o)
		}
	}
	ix.mu.RUnlock()

	search.SortOrders(matched, filter.Sort)
	window := search.Paginate(matched, filter.Offset, filter.Limit)

	page := &domain.OrderPage{
		Orders: make([]*domain.Order, 0, len(window)),
		Total:  int64(len(matched)),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}
	for _, o := range window {
		page.Orders = append(page.Orders, o.Clone())
	}
	return page, nil
}

// ListAfter — копии документов по возрастанию id после afterID.
func (ix *Index) ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	ids := make([]int64, 0, len(ix.docs))
	for id := range ix.docs {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, ix.docs[id].Clone())
	}
	ix.mu.RUnlock()
	return out, nil
}

// Ping — индекс в памяти всегда доступен.
func (ix *Index) Ping(context.Context) error { return nil }

// Len — число документов.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}
