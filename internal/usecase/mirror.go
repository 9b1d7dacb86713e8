package usecase

import (
	"context"
	"errors"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
	"github.com/Gunvolt24/ordersync/pkg/validate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// mirror — шаг синхронизации зеркала после успешной записи в хранилище.
// Шаг не зависит от отмены запроса и ограничен MirrorTimeout.
// Неудача после всех повторов: лог, метрика, заявка на ремонт. Наружу не пробрасывается.
func (s *OrderService) mirror(ctx context.Context, mirror, op string, id int64, fn func(ctx context.Context) error) bool {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.MirrorTimeout)
	defer cancel()

	err := s.opts.Mirror.Do(mctx, fn)
	if err == nil {
		return true
	}

	syncErr := &domain.MirrorSyncError{Mirror: mirror, Op: op, OrderID: id, Err: err}
	metrics.MirrorSyncFailures.WithLabelValues(mirror, op).Inc()
	trace.SpanFromContext(ctx).RecordError(syncErr, trace.WithAttributes(attribute.String("mirror", mirror)))
	s.log.Errorf(ctx, "%v", syncErr)

	// бюджет шага мог кончиться на повторах: заявке нужен свой
	rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.MirrorTimeout)
	defer rcancel()
	s.requestRepair(rctx, id, mirror+" "+op)
	return false
}

// invalidateSearches — сдвинуть поколение кэша страниц поиска.
func (s *OrderService) invalidateSearches(ctx context.Context, id int64) {
	s.mirror(ctx, domain.MirrorCache, "invalidate_searches", id, s.searchCache.InvalidateSearches)
}

func (s *OrderService) requestRepair(ctx context.Context, id int64, reason string) {
	req := domain.RepairRequest{OrderID: id, Reason: reason, RequestedAt: domain.Timestamp(s.clock.Now())}
	if err := s.repairs.Enqueue(ctx, req); err != nil {
		s.log.Errorf(ctx, "repair enqueue failed id=%d reason=%q err=%v", id, reason, err)
	}
}

// RepairFromMessage — обработать заявку на ремонт из очереди (raw JSON).
// Некорректная заявка возвращает ошибку валидации: потребитель её пропускает.
func (s *OrderService) RepairFromMessage(ctx context.Context, raw []byte) error {
	var req domain.RepairRequest
	if err := validate.DecodeStrict(raw, &req); err != nil {
		s.log.Warnf(ctx, "invalid repair request err=%v", err)
		return err
	}
	if req.OrderID <= 0 {
		return domain.NewValidationError(domain.FieldViolation{Field: "order_id", Rule: "gt=0"})
	}
	return s.Reconcile(ctx, req.OrderID)
}

// Reconcile — пересобрать оба зеркала одного заказа по хранилищу записей.
// Ошибки возвращаются: повтор на стороне вызывающего.
func (s *OrderService) Reconcile(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Reconcile", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { s.finish(span, "reconcile", err) }()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}

	var errs []error
	if order == nil {
		if idxErr := s.index.Delete(ctx, id); idxErr != nil {
			errs = append(errs, &domain.MirrorSyncError{Mirror: domain.MirrorIndex, Op: "delete", OrderID: id, Err: idxErr})
		}
	} else if idxErr := s.index.Upsert(ctx, []*domain.Order{order}); idxErr != nil {
		errs = append(errs, &domain.MirrorSyncError{Mirror: domain.MirrorIndex, Op: "upsert", OrderID: id, Err: idxErr})
	}
	if cacheErr := s.cache.Delete(ctx, id); cacheErr != nil {
		errs = append(errs, &domain.MirrorSyncError{Mirror: domain.MirrorCache, Op: "delete", OrderID: id, Err: cacheErr})
	}
	if invErr := s.searchCache.InvalidateSearches(ctx); invErr != nil {
		errs = append(errs, &domain.MirrorSyncError{Mirror: domain.MirrorCache, Op: "invalidate_searches", OrderID: id, Err: invErr})
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.log.Infof(ctx, "order mirrors reconciled id=%d present=%t", id, order != nil)
	return nil
}

// discardRepairQueue — очередь ремонта выключена: заявка только логируется.
type discardRepairQueue struct {
	log ports.Logger
}

// NewDiscardRepairQueue — очередь ремонта без брокера.
func NewDiscardRepairQueue(log ports.Logger) ports.RepairQueue {
	return discardRepairQueue{log: log}
}

func (q discardRepairQueue) Enqueue(ctx context.Context, req domain.RepairRequest) error {
	metrics.RepairRequestsPublished.WithLabelValues("discarded").Inc()
	q.log.Warnf(ctx, "repair queue disabled, request dropped id=%d reason=%q", req.OrderID, req.Reason)
	return nil
}
