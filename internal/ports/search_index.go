package ports

import (
	"context"

	"github.com/Gunvolt24/ordersync/internal/domain"
)

// SearchIndex — поисковый индекс (зеркало хранилища записей).
type SearchIndex interface {
	// Upsert — вставить или заменить документы; запись видна поиску после возврата.
	Upsert(ctx context.Context, orders []*domain.Order) error
	// Delete — удалить документ; отсутствие документа не ошибка.
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error)
	// ListAfter — документы по возрастанию id, начиная после afterID (обход индекса при сверке).
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Order, error)
	Ping(ctx context.Context) error
}
