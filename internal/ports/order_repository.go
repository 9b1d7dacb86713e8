package ports

import (
	"context"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
)

// OrderRepository — хранилище записей (источник истины).
type OrderRepository interface {
	// Create — вставить заказ; возвращает заказ с назначенным id.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// GetByID — (nil, nil), если заказа нет.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// Update — атомарно применить патч и обновить updated_at; (nil, nil), если заказа нет.
	Update(ctx context.Context, id int64, patch domain.OrderPatch, now time.Time) (*domain.Order, error)
	// Delete — false, если заказа не было.
	Delete(ctx context.Context, id int64) (bool, error)
	// Search — тот же фильтр, что у поискового индекса, средствами SQL.
	Search(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error)
	LastN(ctx context.Context, n int) ([]*domain.Order, error)
	// ListAfter — страница по возрастанию id, начиная после afterID.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Order, error)
	// ListByIDs — существующие заказы из ids, в любом порядке.
	ListByIDs(ctx context.Context, ids []int64) ([]*domain.Order, error)
	Ping(ctx context.Context) error
}
