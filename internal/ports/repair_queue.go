package ports

import (
	"context"

	"github.com/Gunvolt24/ordersync/internal/domain"
)

// RepairQueue — очередь заявок на пересборку зеркал заказа.
type RepairQueue interface {
	Enqueue(ctx context.Context, req domain.RepairRequest) error
}
