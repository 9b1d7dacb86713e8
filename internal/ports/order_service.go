package ports

import (
	"context"

	"github.com/Gunvolt24/ordersync/internal/domain"
)

// OrderService — операции над заказами, доступные транспорту.
type OrderService interface {
	Create(ctx context.Context, in domain.CreateOrderInput) (*domain.Order, error)
	Update(ctx context.Context, id int64, patch domain.OrderPatch) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Search(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error)
	// Ready — ошибка только при недоступном хранилище; состояние зеркал в Readiness.
	Ready(ctx context.Context) (domain.Readiness, error)
}
