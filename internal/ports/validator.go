package ports

import (
	"context"

	"github.com/Gunvolt24/ordersync/internal/domain"
)

// OrderValidator — проверка входных данных до любой записи.
// Ошибки удовлетворяют errors.Is(err, domain.ErrValidation).
type OrderValidator interface {
	ValidateCreate(ctx context.Context, in domain.CreateOrderInput) error
	ValidatePatch(ctx context.Context, patch domain.OrderPatch) error
}
