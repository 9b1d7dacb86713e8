package domain

import (
	"strings"
	"time"
)

// Ограничения полей заказа (совпадают со схемой таблицы orders).
const (
	MaxNameLen        = 255
	MaxDescriptionLen = 500
)

// Order — заказ. Единственная сущность сервиса; id назначается хранилищем записей.
type Order struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone — глубокая копия заказа (все поля значимые, поэтому достаточно копии структуры).
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	return &cp
}

// CreateOrderInput — данные для создания заказа.
type CreateOrderInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=500"`
}

// Normalize — обрезает пробельные символы по краям.
func (in CreateOrderInput) Normalize() CreateOrderInput {
	return CreateOrderInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
}

// OrderPatch — частичное обновление: nil означает «оставить как есть».
type OrderPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty — в патче нет ни одного поля.
func (p OrderPatch) Empty() bool { return p.Name == nil && p.Description == nil }

// Normalize — обрезает пробельные символы у переданных полей.
func (p OrderPatch) Normalize() OrderPatch {
	var out OrderPatch
	if p.Name != nil {
		v := strings.TrimSpace(*p.Name)
		out.Name = &v
	}
	if p.Description != nil {
		v := strings.TrimSpace(*p.Description)
		out.Description = &v
	}
	return out
}

// Apply — применить патч к копии заказа.
func (p OrderPatch) Apply(o *Order) *Order {
	out := o.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	return out
}

// Timestamp — приведение времени к точности хранилища (UTC, микросекунды).
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// CeilTimestamp — как Timestamp, но доли микросекунды округляются вверх.
func CeilTimestamp(t time.Time) time.Time {
	out := Timestamp(t)
	if out.Before(t) {
		out = out.Add(time.Microsecond)
	}
	return out
}

// NextUpdatedAt — updated_at строго возрастает даже при одинаковых показаниях часов.
func NextUpdatedAt(prev, now time.Time) time.Time {
	now = Timestamp(now)
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
