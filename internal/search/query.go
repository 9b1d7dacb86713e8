// Package search — перевод фильтра заказов в запросы поисковых бэкендов.
//
// Семантика общая для всех бэкендов. Строка запроса ищется без учёта регистра в любом месте
// name или description. Границы from/to включительные, условия объединяются через AND.
// Порядок по created_at, при равенстве по id в том же направлении.
package search

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Gunvolt24/ordersync/internal/domain"
)

// Имена атрибутов документа в индексе.
const (
	AttrID          = "id"
	AttrName        = "name"
	AttrDescription = "description"
	AttrCreatedAt   = "created_at"
	AttrSearchText  = "search_text" // куски name и description в нижнем регистре
)

// FilterableAttributes / SortableAttributes — настройки индекса, нужные MeiliFilter, MeiliSort и обходу по id.
var (
	FilterableAttributes = []string{AttrSearchText, AttrCreatedAt, AttrID}
	SortableAttributes   = []string{AttrCreatedAt, AttrID}
)

// Meilisearch сравнивает CONTAINS со строковыми значениями фасета, а они обрезаются
// примерно до 470 байт. Поэтому текст индексируется кусками не длиннее ChunkBytes,
// соседние куски перекрываются на ChunkOverlap байт: любая подстрока не длиннее
// domain.MaxQueryLen символов целиком лежит хотя бы в одном куске.
const (
	ChunkBytes   = 400
	ChunkOverlap = domain.MaxQueryLen * utf8.UTFMax
)

// TextChunks — куски name и description для атрибута AttrSearchText.
func TextChunks(texts ...string) []string {
	var out []string
	for _, t := range texts {
		t = strings.ToLower(t)
		for start := 0; start < len(t); {
			end := min(start+ChunkBytes, len(t))
			for end < len(t) && !utf8.RuneStart(t[end]) {
				end--
			}
			out = append(out, t[start:end])
			if end == len(t) {
				break
			}
			next := end - ChunkOverlap
			for !utf8.RuneStart(t[next]) {
				next--
			}
			start = next
		}
	}
	return out
}

var filterValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote — строковый литерал фильтра Meilisearch.
func quote(s string) string { return `"` + filterValueEscaper.Replace(s) + `"` }

// MeiliFilter — выражение фильтра Meilisearch; пустая строка, если условий нет.
// created_at в индексе хранится в Unix-микросекундах.
func MeiliFilter(f domain.OrderFilter) string {
	var parts []string
	if f.Query != "" {
		parts = append(parts, AttrSearchText+" CONTAINS "+quote(strings.ToLower(f.Query)))
	}
	if f.From != nil {
		parts = append(parts, AttrCreatedAt+" >= "+strconv.FormatInt(f.From.UnixMicro(), 10))
	}
	if f.To != nil {
		parts = append(parts, AttrCreatedAt+" <= "+strconv.FormatInt(f.To.UnixMicro(), 10))
	}
	return strings.Join(parts, " AND ")
}

// MeiliSort — правила сортировки Meilisearch.
func MeiliSort(s domain.SortOrder) []string {
	dir := "desc"
	if !s.Desc() {
		dir = "asc"
	}
	return []string{AttrCreatedAt + ":" + dir, AttrID + ":" + dir}
}

// Matches — тот же фильтр для заказа в памяти.
func Matches(o *domain.Order, f domain.OrderFilter) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(o.Name), q) && !strings.Contains(strings.ToLower(o.Description), q) {
			return false
		}
	}
	if f.From != nil && o.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && o.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// SortOrders — сортировка на месте в порядке выдачи.
func SortOrders(orders []*domain.Order, s domain.SortOrder) {
	desc := s.Desc()
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}

// Paginate — срез страницы [offset, offset+limit); limit <= 0 — без ограничения.
func Paginate(orders []*domain.Order, offset, limit int) []*domain.Order {
	if offset >= len(orders) {
		return []*domain.Order{}
	}
	end := len(orders)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return orders[offset:end]
}
