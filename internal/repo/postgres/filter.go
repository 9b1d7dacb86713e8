package postgres

import (
	"strings"

	"github.com/Gunvolt24/ordersync/internal/domain"
	sq "github.com/Masterminds/squirrel"
)

// likeEscaper — экранирование спецсимволов LIKE (escape-символ по умолчанию — обратный слэш).
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern — шаблон ILIKE «подстрока в любом месте».
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// filterPredicate — фильтр поиска в виде условия WHERE.
// Семантика совпадает с поисковым индексом: подстрока без учёта регистра в name ИЛИ description,
// границы дат включительно, все условия через AND.
func filterPredicate(f domain.OrderFilter) sq.And {
	where := sq.And{}
	if f.Query != "" {
		pattern := containsPattern(f.Query)
		where = append(where, sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		where = append(where, sq.LtOrEq{"created_at": *f.To})
	}
	return where
}

// searchQuery — выборка страницы с детерминированным порядком (created_at, затем id).
func searchQuery(sb sq.StatementBuilderType, f domain.OrderFilter) sq.SelectBuilder {
	dir := "DESC"
	if !f.Sort.Desc() {
		dir = "ASC"
	}
	q := withFilter(sb.Select(orderColumns...).From(ordersTable), f).
		OrderBy("created_at "+dir, "id "+dir)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

// withFilter — пустой фильтр не добавляет WHERE.
func withFilter(q sq.SelectBuilder, f domain.OrderFilter) sq.SelectBuilder {
	if where := filterPredicate(f); len(where) > 0 {
		return q.Where(where)
	}
	return q
}
