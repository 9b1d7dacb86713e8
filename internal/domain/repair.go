package domain

import "time"

// RepairRequest — запрос на пересборку зеркал одного заказа из хранилища записей.
type RepairRequest struct {
	OrderID     int64     `json:"order_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
