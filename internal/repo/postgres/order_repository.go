package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Проверка, что OrderRepository удовлетворяет интерфейсу OrderRepository.
var _ ports.OrderRepository = (*OrderRepository)(nil)

const ordersTable = "orders"

// orderColumns — порядок колонок совпадает с scanOrder.
var orderColumns = []string{"id", "name", "description", "created_at", "updated_at"}

// OrderRepository — реализация хранилища записей на Postgres (pgxpool + squirrel).
type OrderRepository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewOrderRepository - конструктор OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create — вставка заказа; id назначает последовательность.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	const op = "postgres.OrderRepository.Create"

	query, args, err := r.sb.Insert(ordersTable).
		Columns("name", "description", "created_at", "updated_at").
		Values(order.Name, order.Description, order.CreatedAt, order.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	out := order.Clone()
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&out.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// GetByID — заказ по id; (nil, nil), если записи нет.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	const op = "postgres.OrderRepository.GetByID"

	query, args, err := r.sb.Select(orderColumns...).From(ordersTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	order, err := scanOrder(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// Update — слияние патча одним оператором: конкурентные обновления не теряют поля друг друга.
// updated_at = max(now, прежнее значение + 1µs), поэтому строго растёт при любых показаниях часов.
func (r *OrderRepository) Update(ctx context.Context, id int64, patch domain.OrderPatch, now time.Time) (*domain.Order, error) {
	const op = "postgres.OrderRepository.Update"

	query, args, err := r.sb.Update(ordersTable).
		Set("name", sq.Expr("COALESCE(?, name)", patch.Name)).
		Set("description", sq.Expr("COALESCE(?, description)", patch.Description)).
		Set("updated_at", sq.Expr("GREATEST(?::timestamptz, updated_at + interval '1 microsecond')", now)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, description, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	order, err := scanOrder(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// Delete — false, если записи не было.
func (r *OrderRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const op = "postgres.OrderRepository.Delete"

	query, args, err := r.sb.Delete(ordersTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: build query: %w", op, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Search — поиск средствами SQL (резерв на случай недоступности поискового индекса).
func (r *OrderRepository) Search(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	const op = "postgres.OrderRepository.Search"

	countSQL, countArgs, err := withFilter(r.sb.Select("count(*)").From(ordersTable), filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build count: %w", op, err)
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s: count: %w", op, err)
	}

	query, args, err := searchQuery(r.sb, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.OrderPage{Orders: orders, Total: total, Offset: filter.Offset, Limit: filter.Limit}, nil
}

// LastN — последние N заказов по дате создания.
func (r *OrderRepository) LastN(ctx context.Context, n int) ([]*domain.Order, error) {
	const op = "postgres.OrderRepository.LastN"
	if n <= 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(orderColumns...).From(ordersTable).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// ListAfter — обход таблицы по id (keyset-пагинация) для переиндексации.
func (r *OrderRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Order, error) {
	const op = "postgres.OrderRepository.ListAfter"
	if limit <= 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(orderColumns...).From(ordersTable).
		Where(sq.Gt{"id": afterID}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// ListByIDs — строки с id из списка; отсутствующие id пропускаются.
func (r *OrderRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Order, error) {
	const op = "postgres.OrderRepository.ListByIDs"
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(orderColumns...).From(ordersTable).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// Ping — доступность базы.
func (r *OrderRepository) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Order, 0)
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

// scanOrder — явное сопоставление колонок полям (порядок как в orderColumns).
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.Name, &o.Description, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}
