package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/internal/search"
)

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

var errDown = errors.New("connection refused")

// fakeRepo — хранилище записей в памяти с семантикой Postgres-реализации.
// Хуки одноразовые и вызываются после чтения/записи, вне мьютекса: так тест вклинивается
// между шагом хранилища и шагом зеркала.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.Order

	afterCreate func()
	afterGet    func()
	afterList   func()
}

// takeHook — забрать одноразовый хук под мьютексом.
func takeHook(h *func()) func() {
	f := *h
	*h = nil
	return f
}

func runHook(f func()) {
	if f != nil {
		f()
	}
}

var _ ports.OrderRepository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: make(map[int64]*domain.Order)} }

func (r *fakeRepo) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	r.nextID++
	cp := o.Clone()
	cp.ID = r.nextID
	r.rows[cp.ID] = cp
	hook := takeHook(&r.afterCreate)
	r.mu.Unlock()

	runHook(hook)
	return cp.Clone(), nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	o := r.rows[id].Clone()
	hook := takeHook(&r.afterGet)
	r.mu.Unlock()

	runHook(hook)
	return o, nil
}

func (r *fakeRepo) setHook(h *func(), f func()) {
	r.mu.Lock()
	*h = f
	r.mu.Unlock()
}

func (r *fakeRepo) Update(_ context.Context, id int64, patch domain.OrderPatch, now time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	next := patch.Apply(cur)
	next.UpdatedAt = domain.NextUpdatedAt(cur.UpdatedAt, now)
	r.rows[id] = next
	return next.Clone(), nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[id]
	delete(r.rows, id)
	return ok, nil
}

func (r *fakeRepo) all() []*domain.Order {
	out := make([]*domain.Order, 0, len(r.rows))
	for _, o := range r.rows {
		out = append(out, o.Clone())
	}
	return out
}

func (r *fakeRepo) Search(_ context.Context, f domain.OrderFilter) (*domain.OrderPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Order
	for _, o := range r.all() {
		if search.Matches(o, f) {
			matched = append(matched, o)
		}
	}
	search.SortOrders(matched, f.Sort)
	return &domain.OrderPage{
		Orders: search.Paginate(matched, f.Offset, f.Limit),
		Total:  int64(len(matched)),
		Offset: f.Offset,
		Limit:  f.Limit,
	}, nil
}

func (r *fakeRepo) LastN(_ context.Context, n int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.all()
	search.SortOrders(list, domain.SortCreatedDesc)
	if len(list) > n {
		list = list[:n]
	}
	return list, nil
}

func (r *fakeRepo) ListAfter(_ context.Context, afterID int64, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	list := r.all()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	out := make([]*domain.Order, 0, limit)
	for _, o := range list {
		if o.ID > afterID && len(out) < limit {
			out = append(out, o)
		}
	}
	hook := takeHook(&r.afterList)
	r.mu.Unlock()

	runHook(hook)
	return out, nil
}

func (r *fakeRepo) ListByIDs(_ context.Context, ids []int64) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := r.rows[id]; ok {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

func (r *fakeRepo) Ping(context.Context) error { return nil }

// flakyIndex — индекс, который можно «уронить».
type flakyIndex struct {
	ports.SearchIndex
	mu   sync.Mutex
	down bool
}

func (f *flakyIndex) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *flakyIndex) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return fmt.Errorf("index: %w", errDown)
	}
	return nil
}

func (f *flakyIndex) Upsert(ctx context.Context, orders []*domain.Order) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.SearchIndex.Upsert(ctx, orders)
}

func (f *flakyIndex) Delete(ctx context.Context, id int64) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.SearchIndex.Delete(ctx, id)
}

func (f *flakyIndex) Search(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.SearchIndex.Search(ctx, filter)
}

// recordingQueue — очередь ремонта, запоминающая заявки.
type recordingQueue struct {
	mu   sync.Mutex
	reqs []domain.RepairRequest
}

func (q *recordingQueue) Enqueue(_ context.Context, req domain.RepairRequest) error {
	q.mu.Lock()
	q.reqs = append(q.reqs, req)
	q.mu.Unlock()
	return nil
}

func (q *recordingQueue) drain() []domain.RepairRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.reqs
	q.reqs = nil
	return out
}
