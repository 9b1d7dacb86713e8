package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gunvolt24/ordersync/internal/clock"
	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports/mocks"
	"github.com/Gunvolt24/ordersync/internal/usecase"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
	"github.com/Gunvolt24/ordersync/pkg/retry"
	"github.com/Gunvolt24/ordersync/pkg/validate"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type mockSet struct {
	repo    *mocks.MockOrderRepository
	index   *mocks.MockSearchIndex
	cache   *mocks.MockOrderCache
	sc      *mocks.MockSearchCache
	repairs *mocks.MockRepairQueue
	clock   *clock.Manual
}

func newMocked(t *testing.T, fallback bool) (*usecase.OrderService, *mockSet) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &mockSet{
		repo:    mocks.NewMockOrderRepository(ctrl),
		index:   mocks.NewMockSearchIndex(ctrl),
		cache:   mocks.NewMockOrderCache(ctrl),
		sc:      mocks.NewMockSearchCache(ctrl),
		repairs: mocks.NewMockRepairQueue(ctrl),
		clock:   clock.NewManual(t0),
	}
	svc := usecase.NewOrderService(usecase.Deps{
		Repo:        m.repo,
		Index:       m.index,
		Cache:       m.cache,
		SearchCache: m.sc,
		Repairs:     m.repairs,
		Validator:   validate.NewOrderValidator(),
		Log:         noopLogger{},
		Clock:       m.clock,
	}, usecase.Options{
		Mirror:          retry.Policy{Attempts: 2},
		FallbackToStore: fallback,
	})
	return svc, m
}

func strPtr(s string) *string { return &s }

func sample(id int64) *domain.Order {
	return &domain.Order{ID: id, Name: "Office chair", Description: "black", CreatedAt: t0, UpdatedAt: t0}
}

// ---------- Create ----------

func TestCreate_WritesStoreThenMirrors(t *testing.T) {
	svc, m := newMocked(t, false)

	gomock.InOrder(
		m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, o *domain.Order) (*domain.Order, error) {
				if o.Name != "Office chair" || !o.CreatedAt.Equal(t0) || !o.UpdatedAt.Equal(t0) {
					t.Fatalf("unexpected order passed to repo: %+v", o)
				}
				cp := *o
				cp.ID = 1
				return &cp, nil
			}),
		m.index.EXPECT().Upsert(gomock.Any(), gomock.Len(1)).Return(nil),
		m.cache.EXPECT().SetIfVersion(gomock.Any(), gomock.Any(), int64(0)).Return(true, nil),
		m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil),
	)

	got, err := svc.Create(context.Background(), domain.CreateOrderInput{Name: "  Office chair ", Description: "black"})
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
	require.Equal(t, "Office chair", got.Name)
}

func TestCreate_ValidationError_NoWrites(t *testing.T) {
	svc, _ := newMocked(t, false)

	_, err := svc.Create(context.Background(), domain.CreateOrderInput{Name: "   "})
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "name", verr.Violations[0].Field)
}

func TestCreate_StoreFailure_SkipsMirrors(t *testing.T) {
	svc, m := newMocked(t, false)

	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errDown)

	_, err := svc.Create(context.Background(), domain.CreateOrderInput{Name: "chair"})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.ErrorIs(t, err, errDown)
}

func TestCreate_IndexFailure_RetriedCountedAndQueued(t *testing.T) {
	svc, m := newMocked(t, false)
	before := testutil.ToFloat64(metrics.MirrorSyncFailures.WithLabelValues(domain.MirrorIndex, "upsert"))

	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sample(7), nil)
	m.index.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errDown).Times(2)
	m.repairs.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.RepairRequest) error {
			require.Equal(t, int64(7), req.OrderID)
			require.Equal(t, "index upsert", req.Reason)
			require.True(t, req.RequestedAt.Equal(t0))
			return nil
		})
	m.cache.EXPECT().SetIfVersion(gomock.Any(), gomock.Any(), int64(0)).Return(true, nil)
	m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil)

	got, err := svc.Create(context.Background(), domain.CreateOrderInput{Name: "Office chair"})
	require.NoError(t, err, "mirror failure must not fail the request")
	require.Equal(t, int64(7), got.ID)

	after := testutil.ToFloat64(metrics.MirrorSyncFailures.WithLabelValues(domain.MirrorIndex, "upsert"))
	require.Equal(t, before+1, after)
}

func TestCreate_MirrorStepsSurviveCanceledRequest(t *testing.T) {
	svc, m := newMocked(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *domain.Order) (*domain.Order, error) {
			cancel() // клиент ушёл сразу после записи
			return sample(3), nil
		})
	m.index.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ []*domain.Order) error { return ctx.Err() })
	m.cache.EXPECT().SetIfVersion(gomock.Any(), gomock.Any(), int64(0)).Return(true, nil)
	m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil)

	_, err := svc.Create(ctx, domain.CreateOrderInput{Name: "chair"})
	require.NoError(t, err)
}

// ---------- Update ----------

func TestUpdate_WritesStoreThenMirrors(t *testing.T) {
	svc, m := newMocked(t, false)
	updated := sample(5)
	updated.Name = "Desk"

	gomock.InOrder(
		m.repo.EXPECT().Update(gomock.Any(), int64(5), gomock.Any(), t0).DoAndReturn(
			func(_ context.Context, _ int64, p domain.OrderPatch, _ time.Time) (*domain.Order, error) {
				require.Equal(t, "Desk", *p.Name, "patch must be normalized")
				require.Nil(t, p.Description)
				return updated, nil
			}),
		m.index.EXPECT().Upsert(gomock.Any(), []*domain.Order{updated}).Return(nil),
		m.cache.EXPECT().Delete(gomock.Any(), int64(5)).Return(nil),
		m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil),
	)

	got, err := svc.Update(context.Background(), 5, domain.OrderPatch{Name: strPtr(" Desk ")})
	require.NoError(t, err)
	require.Equal(t, "Desk", got.Name)
}

func TestUpdate_EmptyPatchOrBlankName(t *testing.T) {
	svc, _ := newMocked(t, false)

	_, err := svc.Update(context.Background(), 5, domain.OrderPatch{})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Update(context.Background(), 5, domain.OrderPatch{Name: strPtr("  ")})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Update(context.Background(), 0, domain.OrderPatch{Name: strPtr("x")})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdate_NotFound_NoMirrors(t *testing.T) {
	svc, m := newMocked(t, false)
	m.repo.EXPECT().Update(gomock.Any(), int64(9), gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := svc.Update(context.Background(), 9, domain.OrderPatch{Description: strPtr("")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------- Delete ----------

func TestDelete_AllMirrorStepsAttempted(t *testing.T) {
	svc, m := newMocked(t, false)

	m.repo.EXPECT().Delete(gomock.Any(), int64(4)).Return(true, nil)
	m.index.EXPECT().Delete(gomock.Any(), int64(4)).Return(errDown).Times(2)
	m.cache.EXPECT().Delete(gomock.Any(), int64(4)).Return(errDown).Times(2)
	m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil)
	m.repairs.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	require.NoError(t, svc.Delete(context.Background(), 4))
}

func TestDelete_NotFound(t *testing.T) {
	svc, m := newMocked(t, false)
	m.repo.EXPECT().Delete(gomock.Any(), int64(4)).Return(false, nil)

	require.ErrorIs(t, svc.Delete(context.Background(), 4), domain.ErrNotFound)
}

func TestDelete_StoreFailure(t *testing.T) {
	svc, m := newMocked(t, false)
	m.repo.EXPECT().Delete(gomock.Any(), int64(4)).Return(false, errDown)

	require.ErrorIs(t, svc.Delete(context.Background(), 4), domain.ErrStoreUnavailable)
}

// ---------- GetByID ----------

func TestGetByID_CacheHit(t *testing.T) {
	svc, m := newMocked(t, false)
	m.cache.EXPECT().Get(gomock.Any(), int64(1)).Return(sample(1), true, nil)

	got, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
}

func TestGetByID_CacheMiss_FetchAndCache(t *testing.T) {
	svc, m := newMocked(t, false)
	o := sample(1)

	gomock.InOrder(
		m.cache.EXPECT().Get(gomock.Any(), int64(1)).Return(nil, false, nil),
		m.cache.EXPECT().Version(gomock.Any(), int64(1)).Return(int64(3), nil),
		m.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(o, nil),
		m.cache.EXPECT().SetIfVersion(gomock.Any(), o, int64(3)).Return(true, nil),
	)

	got, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, o, got)
}

func TestGetByID_CacheErrorTreatedAsMiss(t *testing.T) {
	svc, m := newMocked(t, false)

	m.cache.EXPECT().Get(gomock.Any(), int64(1)).Return(nil, false, errDown)
	m.cache.EXPECT().Version(gomock.Any(), int64(1)).Return(int64(0), errDown)
	m.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(sample(1), nil)

	got, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
}

func TestGetByID_NotFound_NoCache(t *testing.T) {
	svc, m := newMocked(t, false)

	m.cache.EXPECT().Get(gomock.Any(), int64(2)).Return(nil, false, nil)
	m.cache.EXPECT().Version(gomock.Any(), int64(2)).Return(int64(0), nil)
	m.repo.EXPECT().GetByID(gomock.Any(), int64(2)).Return(nil, nil)

	_, err := svc.GetByID(context.Background(), 2)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetByID_RepoError(t *testing.T) {
	svc, m := newMocked(t, false)

	m.cache.EXPECT().Get(gomock.Any(), int64(2)).Return(nil, false, nil)
	m.cache.EXPECT().Version(gomock.Any(), int64(2)).Return(int64(0), nil)
	m.repo.EXPECT().GetByID(gomock.Any(), int64(2)).Return(nil, errDown)

	_, err := svc.GetByID(context.Background(), 2)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

// ---------- Search ----------

func normalized(t *testing.T, f domain.OrderFilter) domain.OrderFilter {
	t.Helper()
	out, err := f.Normalize(domain.DefaultLimit, domain.MaxLimit)
	require.NoError(t, err)
	return out
}

func TestSearch_InvalidRange_NoBackendCalls(t *testing.T) {
	svc, _ := newMocked(t, false)
	from, to := t0, t0.Add(-time.Hour)

	_, err := svc.Search(context.Background(), domain.OrderFilter{From: &from, To: &to})
	require.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestSearch_PageCacheHit(t *testing.T) {
	svc, m := newMocked(t, false)
	f := normalized(t, domain.OrderFilter{Query: "chair"})
	page := &domain.OrderPage{Orders: []*domain.Order{sample(1)}, Total: 1, Limit: f.Limit}

	m.sc.EXPECT().Generation(gomock.Any()).Return(int64(3), nil)
	m.sc.EXPECT().GetPage(gomock.Any(), int64(3), f.CacheKey()).Return(page, true, nil)

	got, err := svc.Search(context.Background(), domain.OrderFilter{Query: " chair "})
	require.NoError(t, err)
	require.Equal(t, page, got)
}

func TestSearch_IndexResultStoredUnderObservedGeneration(t *testing.T) {
	svc, m := newMocked(t, false)
	f := normalized(t, domain.OrderFilter{Query: "chair", Limit: 500})
	require.Equal(t, domain.MaxLimit, f.Limit)
	page := &domain.OrderPage{Total: 0, Limit: f.Limit}

	gomock.InOrder(
		m.sc.EXPECT().Generation(gomock.Any()).Return(int64(3), nil),
		m.sc.EXPECT().GetPage(gomock.Any(), int64(3), f.CacheKey()).Return(nil, false, nil),
		m.index.EXPECT().Search(gomock.Any(), f).Return(page, nil),
		m.sc.EXPECT().SetPage(gomock.Any(), int64(3), f.CacheKey(), page).Return(nil),
	)

	got, err := svc.Search(context.Background(), domain.OrderFilter{Query: "chair", Limit: 500})
	require.NoError(t, err)
	require.Equal(t, page, got)
}

func TestSearch_IndexDown(t *testing.T) {
	t.Run("without_fallback", func(t *testing.T) {
		svc, m := newMocked(t, false)
		m.sc.EXPECT().Generation(gomock.Any()).Return(int64(0), nil)
		m.sc.EXPECT().GetPage(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, false, nil)
		m.index.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, errDown)

		_, err := svc.Search(context.Background(), domain.OrderFilter{})
		require.ErrorIs(t, err, domain.ErrSearchUnavailable)
	})

	t.Run("with_fallback", func(t *testing.T) {
		svc, m := newMocked(t, true)
		page := &domain.OrderPage{Orders: []*domain.Order{sample(1)}, Total: 1}
		m.sc.EXPECT().Generation(gomock.Any()).Return(int64(0), nil)
		m.sc.EXPECT().GetPage(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, false, nil)
		m.index.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, errDown)
		m.repo.EXPECT().Search(gomock.Any(), gomock.Any()).Return(page, nil)
		m.sc.EXPECT().SetPage(gomock.Any(), int64(0), gomock.Any(), page).Return(nil)

		got, err := svc.Search(context.Background(), domain.OrderFilter{})
		require.NoError(t, err)
		require.Equal(t, int64(1), got.Total)
	})
}

func TestSearch_GenerationError_BypassesPageCache(t *testing.T) {
	svc, m := newMocked(t, false)
	page := &domain.OrderPage{}

	m.sc.EXPECT().Generation(gomock.Any()).Return(int64(0), errDown)
	m.index.EXPECT().Search(gomock.Any(), gomock.Any()).Return(page, nil)

	_, err := svc.Search(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
}

// ---------- Repair ----------

func TestRepairFromMessage_Invalid(t *testing.T) {
	svc, _ := newMocked(t, false)

	for _, raw := range []string{
		`{`,
		`{"order_id":1,"unknown":true}`,
		`{"order_id":1} {"order_id":2}`,
		`{"order_id":0}`,
	} {
		err := svc.RepairFromMessage(context.Background(), []byte(raw))
		require.ErrorIs(t, err, domain.ErrValidation, raw)
	}
}

func TestRepairFromMessage_PresentOrder(t *testing.T) {
	svc, m := newMocked(t, false)
	o := sample(8)

	gomock.InOrder(
		m.repo.EXPECT().GetByID(gomock.Any(), int64(8)).Return(o, nil),
		m.index.EXPECT().Upsert(gomock.Any(), []*domain.Order{o}).Return(nil),
		m.cache.EXPECT().Delete(gomock.Any(), int64(8)).Return(nil),
		m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil),
	)

	err := svc.RepairFromMessage(context.Background(), []byte(`{"order_id":8,"reason":"index upsert","requested_at":"2025-03-01T12:00:00Z"}`))
	require.NoError(t, err)
}

func TestReconcile_AbsentOrder(t *testing.T) {
	svc, m := newMocked(t, false)

	m.repo.EXPECT().GetByID(gomock.Any(), int64(8)).Return(nil, nil)
	m.index.EXPECT().Delete(gomock.Any(), int64(8)).Return(nil)
	m.cache.EXPECT().Delete(gomock.Any(), int64(8)).Return(nil)
	m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil)

	require.NoError(t, svc.Reconcile(context.Background(), 8))
}

func TestReconcile_MirrorErrorsReturned(t *testing.T) {
	svc, m := newMocked(t, false)

	m.repo.EXPECT().GetByID(gomock.Any(), int64(8)).Return(sample(8), nil)
	m.index.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errDown)
	m.cache.EXPECT().Delete(gomock.Any(), int64(8)).Return(nil)
	m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil)

	err := svc.Reconcile(context.Background(), 8)
	require.ErrorIs(t, err, domain.ErrMirrorSync)
	require.ErrorIs(t, err, errDown)

	var syncErr *domain.MirrorSyncError
	require.True(t, errors.As(err, &syncErr))
	require.Equal(t, domain.MirrorIndex, syncErr.Mirror)
}

func TestReconcile_StoreError(t *testing.T) {
	svc, m := newMocked(t, false)
	m.repo.EXPECT().GetByID(gomock.Any(), int64(8)).Return(nil, errDown)

	require.ErrorIs(t, svc.Reconcile(context.Background(), 8), domain.ErrStoreUnavailable)
}

// ---------- ReindexAll / WarmUpCache / Ready ----------

func TestReindexAll_PagesByID(t *testing.T) {
	svc, m := newMocked(t, false)

	gomock.InOrder(
		m.repo.EXPECT().ListAfter(gomock.Any(), int64(0), 2).Return([]*domain.Order{sample(1), sample(2)}, nil),
		m.index.EXPECT().Upsert(gomock.Any(), gomock.Len(2)).Return(nil),
		m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{1, 2}).Return([]*domain.Order{sample(1), sample(2)}, nil),
		m.repo.EXPECT().ListAfter(gomock.Any(), int64(2), 2).Return([]*domain.Order{sample(5)}, nil),
		m.index.EXPECT().Upsert(gomock.Any(), gomock.Len(1)).Return(nil),
		m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{5}).Return([]*domain.Order{sample(5)}, nil),
		m.index.EXPECT().ListAfter(gomock.Any(), int64(0), 2).Return([]*domain.Order{sample(1), sample(2)}, nil),
		m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{1, 2}).Return([]*domain.Order{sample(1), sample(2)}, nil),
		m.index.EXPECT().ListAfter(gomock.Any(), int64(2), 2).Return([]*domain.Order{sample(5)}, nil),
		m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{5}).Return([]*domain.Order{sample(5)}, nil),
		m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil),
	)

	n, err := svc.ReindexAll(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestReindexAll_SweepRemovesAndRefreshes(t *testing.T) {
	svc, m := newMocked(t, false)

	newer := sample(4)
	newer.UpdatedAt = t0.Add(time.Minute)

	gomock.InOrder(
		m.repo.EXPECT().ListAfter(gomock.Any(), int64(0), 10).Return([]*domain.Order{newer}, nil),
		m.index.EXPECT().Upsert(gomock.Any(), []*domain.Order{newer}).Return(nil),
		m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{4}).Return([]*domain.Order{newer}, nil),
		// в индексе: 3 нет в хранилище, 4 уже свежий
		m.index.EXPECT().ListAfter(gomock.Any(), int64(0), 10).Return([]*domain.Order{sample(3), newer}, nil),
		m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{3, 4}).Return([]*domain.Order{newer}, nil),
		m.index.EXPECT().Delete(gomock.Any(), int64(3)).Return(nil),
		m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil),
	)

	n, err := svc.ReindexAll(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestReindexAll_RowChangedAfterRead(t *testing.T) {
	svc, m := newMocked(t, false)

	updated := sample(1)
	updated.Name = "Renamed"
	updated.UpdatedAt = t0.Add(time.Second)

	gomock.InOrder(
		m.repo.EXPECT().ListAfter(gomock.Any(), int64(0), 10).Return([]*domain.Order{sample(1), sample(2)}, nil),
		m.index.EXPECT().Upsert(gomock.Any(), gomock.Len(2)).Return(nil),
		// 1 обновлён, 2 удалён, пока пачка шла в индекс
		m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{1, 2}).Return([]*domain.Order{updated}, nil),
		m.index.EXPECT().Delete(gomock.Any(), int64(2)).Return(nil),
		m.index.EXPECT().Upsert(gomock.Any(), []*domain.Order{updated}).Return(nil),
		m.index.EXPECT().ListAfter(gomock.Any(), int64(0), 10).Return([]*domain.Order{updated}, nil),
		m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{1}).Return([]*domain.Order{updated}, nil),
		m.sc.EXPECT().InvalidateSearches(gomock.Any()).Return(nil),
	)

	n, err := svc.ReindexAll(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestReindexAll_IndexError(t *testing.T) {
	svc, m := newMocked(t, false)

	m.repo.EXPECT().ListAfter(gomock.Any(), int64(0), usecase.DefaultReindexBatch).Return([]*domain.Order{sample(1)}, nil)
	m.index.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errDown)

	n, err := svc.ReindexAll(context.Background(), 0)
	require.ErrorIs(t, err, errDown)
	require.Equal(t, 0, n)
}

func TestReindexAll_StoreErrorDuringSweep(t *testing.T) {
	svc, m := newMocked(t, false)

	m.repo.EXPECT().ListAfter(gomock.Any(), int64(0), 10).Return(nil, nil)
	m.index.EXPECT().ListAfter(gomock.Any(), int64(0), 10).Return([]*domain.Order{sample(7)}, nil)
	m.repo.EXPECT().ListByIDs(gomock.Any(), []int64{7}).Return(nil, errDown)

	_, err := svc.ReindexAll(context.Background(), 10)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestWarmUpCache_SkipWhenLessThanZero(t *testing.T) {
	svc, _ := newMocked(t, false)
	require.NoError(t, svc.WarmUpCache(context.Background(), -1))
}

func TestWarmUpCache_RepoErr(t *testing.T) {
	svc, m := newMocked(t, false)
	m.repo.EXPECT().LastN(gomock.Any(), 10).Return(nil, errDown)

	require.ErrorIs(t, svc.WarmUpCache(context.Background(), 10), domain.ErrStoreUnavailable)
}

func TestWarmUpCache_WarnOnly(t *testing.T) {
	svc, m := newMocked(t, false)
	list := []*domain.Order{sample(1), sample(2)}

	m.repo.EXPECT().LastN(gomock.Any(), 2).Return(list, nil)
	m.cache.EXPECT().WarmUp(gomock.Any(), list).Return(errDown)

	require.NoError(t, svc.WarmUpCache(context.Background(), 2))
}

func TestReady(t *testing.T) {
	svc, m := newMocked(t, false)

	m.repo.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)
	m.index.EXPECT().Ping(gomock.Any()).Return(nil)
	m.cache.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)
	r, err := svc.Ready(context.Background())
	require.NoError(t, err)
	require.False(t, r.Degraded())

	// индекс недоступен: готовность сохраняется, отчёт деградирован
	m.index.EXPECT().Ping(gomock.Any()).Return(errDown)
	r, err = svc.Ready(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.StatusDegraded, r.Status())
	require.Equal(t, errDown.Error(), r.Mirrors[domain.MirrorIndex])
	require.Equal(t, domain.StatusOK, r.Mirrors[domain.MirrorCache])
}

func TestReady_StoreDown(t *testing.T) {
	svc, m := newMocked(t, false)
	m.repo.EXPECT().Ping(gomock.Any()).Return(errDown)

	_, err := svc.Ready(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
