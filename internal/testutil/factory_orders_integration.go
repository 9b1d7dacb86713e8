//go:build integration

package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// UniqSuffix — короткий случайный суффикс для имён и топиков.
func UniqSuffix() string { return randHex(6) }

// MakeOrder — заказ без id с уникальным именем; время в точности хранилища.
func MakeOrder(opts ...func(*domain.Order)) domain.Order {
	now := domain.Timestamp(time.Now())
	o := domain.Order{
		Name:        "order-" + UniqSuffix(),
		Description: "integration test order",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func WithName(name string) func(*domain.Order) {
	return func(o *domain.Order) { o.Name = name }
}

func WithDescription(d string) func(*domain.Order) {
	return func(o *domain.Order) { o.Description = d }
}

// WithCreatedAt — задаёт обе метки времени (created_at == updated_at при создании).
func WithCreatedAt(t time.Time) func(*domain.Order) {
	return func(o *domain.Order) {
		o.CreatedAt = domain.Timestamp(t)
		o.UpdatedAt = o.CreatedAt
	}
}
