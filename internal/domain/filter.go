package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Параметры пагинации по умолчанию.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// MaxQueryLen — предел длины строки поиска в символах.
// Индекс режет длинные тексты на куски с перекрытием не короче такого запроса.
const MaxQueryLen = 64

// SortOrder — порядок выдачи поиска по created_at (id — вторичный ключ в том же направлении).
type SortOrder string

const (
	SortCreatedDesc SortOrder = "created_at:desc"
	SortCreatedAsc  SortOrder = "created_at:asc"
)

// ParseSortOrder — разбор параметра сортировки; пустая строка даёт порядок по умолчанию.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortCreatedDesc:
		return SortCreatedDesc, nil
	case SortCreatedAsc:
		return SortCreatedAsc, nil
	default:
		return "", NewValidationError(FieldViolation{Field: "sort", Rule: "oneof created_at:asc created_at:desc"})
	}
}

// Desc — сортировка по убыванию.
func (s SortOrder) Desc() bool { return s != SortCreatedAsc }

// OrderFilter — критерии поиска. Все условия объединяются через AND.
type OrderFilter struct {
	Query  string
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
	Sort   SortOrder
}

// Normalize — проверка диапазона и подстановка значений по умолчанию.
func (f OrderFilter) Normalize(defaultLimit, maxLimit int) (OrderFilter, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}

	out := f
	out.Query = strings.TrimSpace(f.Query)

	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderFilter{}, fmt.Errorf("%w: from %s is after to %s",
			ErrInvalidRange, f.From.Format(time.RFC3339Nano), f.To.Format(time.RFC3339Nano))
	}
	// from округляется вверх, to вниз: заказ вне исходных границ в выдачу не попадёт
	if out.From != nil {
		t := CeilTimestamp(*out.From)
		out.From = &t
	}
	if out.To != nil {
		t := Timestamp(*out.To)
		out.To = &t
	}

	var violations []FieldViolation
	if utf8.RuneCountInString(out.Query) > MaxQueryLen {
		violations = append(violations, FieldViolation{Field: "query", Rule: "max=" + strconv.Itoa(MaxQueryLen)})
	}
	if out.Offset < 0 {
		violations = append(violations, FieldViolation{Field: "offset", Rule: "gte=0"})
	}
	switch {
	case out.Limit < 0:
		violations = append(violations, FieldViolation{Field: "limit", Rule: "gte=0"})
	case out.Limit == 0:
		out.Limit = defaultLimit
	case out.Limit > maxLimit:
		out.Limit = maxLimit
	}
	if len(violations) > 0 {
		return OrderFilter{}, NewValidationError(violations...)
	}

	if out.Sort == "" {
		out.Sort = SortCreatedDesc
	}
	return out, nil
}

// CacheKey — детерминированное представление нормализованного фильтра.
func (f OrderFilter) CacheKey() string {
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(strconv.Quote(f.Query))
	b.WriteString("|from=")
	if f.From != nil {
		b.WriteString(strconv.FormatInt(f.From.UnixMicro(), 10))
	}
	b.WriteString("|to=")
	if f.To != nil {
		b.WriteString(strconv.FormatInt(f.To.UnixMicro(), 10))
	}
	fmt.Fprintf(&b, "|off=%d|lim=%d|sort=%s", f.Offset, f.Limit, f.Sort)
	return b.String()
}

// OrderPage — страница результатов поиска.
type OrderPage struct {
	Orders []*Order `json:"orders"`
	Total  int64    `json:"total"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

// Clone — копия страницы с копиями заказов.
func (p *OrderPage) Clone() *OrderPage {
	if p == nil {
		return nil
	}
	out := &OrderPage{Total: p.Total, Offset: p.Offset, Limit: p.Limit, Orders: make([]*Order, 0, len(p.Orders))}
	for _, o := range p.Orders {
		out.Orders = append(out.Orders, o.Clone())
	}
	return out
}
