package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/ordersync/internal/clock"
	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
	"github.com/Gunvolt24/ordersync/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/Gunvolt24/ordersync/internal/usecase")

// Проверка, что OrderService удовлетворяет порту транспорта.
var _ ports.OrderService = (*OrderService)(nil)

// Deps — зависимости сервиса заказов.
type Deps struct {
	Repo        ports.OrderRepository // хранилище записей (источник истины)
	Index       ports.SearchIndex     // зеркало для поиска
	Cache       ports.OrderCache      // зеркало для чтения по id
	SearchCache ports.SearchCache     // кэш страниц поиска
	Repairs     ports.RepairQueue     // nil — заявки на ремонт только логируются
	Validator   ports.OrderValidator
	Log         ports.Logger
	Clock       ports.Clock // nil — системные часы
}

// Options — поведение сервиса.
type Options struct {
	// Mirror — повторы шагов синхронизации зеркал.
	Mirror retry.Policy
	// MirrorTimeout — общий бюджет шага синхронизации (включая повторы).
	MirrorTimeout time.Duration
	// FallbackToStore — выполнять поиск SQL-запросом, если индекс недоступен.
	FallbackToStore bool
	DefaultLimit    int
	MaxLimit        int
}

// DefaultOptions — значения по умолчанию.
func DefaultOptions() Options {
	return Options{
		Mirror:        retry.Policy{Attempts: 3, Initial: 50 * time.Millisecond, Max: time.Second},
		MirrorTimeout: 10 * time.Second,
		DefaultLimit:  domain.DefaultLimit,
		MaxLimit:      domain.MaxLimit,
	}
}

// OrderService — прикладная логика работы с заказами (без знаний о транспорте).
// Порядок записи: хранилище записей → индекс → кэш. Ошибка хранилища прерывает операцию,
// ошибки зеркал повторяются, логируются и уходят в очередь ремонта.
type OrderService struct {
	repo        ports.OrderRepository
	index       ports.SearchIndex
	cache       ports.OrderCache
	searchCache ports.SearchCache
	repairs     ports.RepairQueue
	validator   ports.OrderValidator
	log         ports.Logger
	clock       ports.Clock
	opts        Options
}

// NewOrderService — DI-конструктор.
func NewOrderService(d Deps, opts Options) *OrderService {
	def := DefaultOptions()
	if opts.Mirror.Attempts <= 0 {
		opts.Mirror = def.Mirror
	}
	if opts.MirrorTimeout <= 0 {
		opts.MirrorTimeout = def.MirrorTimeout
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = def.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = def.MaxLimit
	}

	s := &OrderService{
		repo:        d.Repo,
		index:       d.Index,
		cache:       d.Cache,
		searchCache: d.SearchCache,
		repairs:     d.Repairs,
		validator:   d.Validator,
		log:         d.Log,
		clock:       d.Clock,
		opts:        opts,
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	if s.repairs == nil {
		s.repairs = NewDiscardRepairQueue(d.Log)
	}
	return s
}

// Create — проверить данные, записать в хранилище, затем синхронизировать зеркала.
func (s *OrderService) Create(ctx context.Context, in domain.CreateOrderInput) (_ *domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Create")
	defer func() { s.finish(span, "create", err) }()

	if err = s.validator.ValidateCreate(ctx, in); err != nil {
		return nil, err
	}
	in = in.Normalize()

	now := domain.Timestamp(s.clock.Now())
	order, err := s.repo.Create(ctx, &domain.Order{
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.log.Errorf(ctx, "repo.Create failed err=%v", err)
		return nil, storeErr(err)
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	s.mirror(ctx, domain.MirrorIndex, "upsert", order.ID, func(ctx context.Context) error {
		return s.index.Upsert(ctx, []*domain.Order{order})
	})
	// новый id ещё ни разу не сбрасывался; конкурентный Update/Delete увеличит версию
	s.mirror(ctx, domain.MirrorCache, "set", order.ID, func(ctx context.Context) error {
		_, err := s.cache.SetIfVersion(ctx, order, 0)
		return err
	})
	s.invalidateSearches(ctx, order.ID)

	s.log.Infof(ctx, "order created id=%d", order.ID)
	return order.Clone(), nil
}

// Update — частичное обновление. Кэш заказа не патчится, а сбрасывается.
func (s *OrderService) Update(ctx context.Context, id int64, patch domain.OrderPatch) (_ *domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { s.finish(span, "update", err) }()

	if err = checkID(id); err != nil {
		return nil, err
	}
	if err = s.validator.ValidatePatch(ctx, patch); err != nil {
		return nil, err
	}
	patch = patch.Normalize()

	order, err := s.repo.Update(ctx, id, patch, s.clock.Now())
	if err != nil {
		s.log.Errorf(ctx, "repo.Update failed id=%d err=%v", id, err)
		return nil, storeErr(err)
	}
	if order == nil {
		return nil, notFound(id)
	}

	s.mirror(ctx, domain.MirrorIndex, "upsert", id, func(ctx context.Context) error {
		return s.index.Upsert(ctx, []*domain.Order{order})
	})
	s.mirror(ctx, domain.MirrorCache, "delete", id, func(ctx context.Context) error {
		return s.cache.Delete(ctx, id)
	})
	s.invalidateSearches(ctx, id)

	s.log.Infof(ctx, "order updated id=%d", id)
	return order.Clone(), nil
}

// Delete — удалить заказ из хранилища и из обоих зеркал.
// Все шаги зеркал выполняются, даже если предыдущий не удался.
func (s *OrderService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { s.finish(span, "delete", err) }()

	if err = checkID(id); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Errorf(ctx, "repo.Delete failed id=%d err=%v", id, err)
		return storeErr(err)
	}
	if !deleted {
		return notFound(id)
	}

	s.mirror(ctx, domain.MirrorIndex, "delete", id, func(ctx context.Context) error {
		return s.index.Delete(ctx, id)
	})
	s.mirror(ctx, domain.MirrorCache, "delete", id, func(ctx context.Context) error {
		return s.cache.Delete(ctx, id)
	})
	s.invalidateSearches(ctx, id)

	s.log.Infof(ctx, "order deleted id=%d", id)
	return nil
}

// GetByID — сначала кэш, при промахе — хранилище с записью в кэш под версией id.
// Ошибка кэша считается промахом.
func (s *OrderService) GetByID(ctx context.Context, id int64) (_ *domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { s.finish(span, "get", err) }()

	if err = checkID(id); err != nil {
		return nil, err
	}

	order, found, cacheErr := s.cache.Get(ctx, id)
	switch {
	case cacheErr != nil:
		s.log.Warnf(ctx, "cache.Get failed id=%d err=%v (treated as miss)", id, cacheErr)
	case found:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return order, nil
	}

	// версию читаем до хранилища: Update/Delete, успевшие между чтением и записью в кэш,
	// её увеличат, и устаревшая строка в кэш не попадёт
	version, verErr := s.cache.Version(ctx, id)
	if verErr != nil {
		s.log.Warnf(ctx, "cache.Version failed id=%d err=%v (fill skipped)", id, verErr)
	}

	start := time.Now()
	order, err = s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Errorf(ctx, "repo.GetByID failed id=%d err=%v", id, err)
		return nil, storeErr(err)
	}
	if order == nil {
		return nil, notFound(id)
	}

	if verErr == nil {
		if _, setErr := s.cache.SetIfVersion(ctx, order, version); setErr != nil {
			s.log.Warnf(ctx, "cache.SetIfVersion failed id=%d err=%v", id, setErr)
		}
	}
	s.log.Infof(ctx, "db fetch id=%d took=%s", id, time.Since(start))
	return order.Clone(), nil
}

// Ready — готовность определяется только хранилищем записей; зеркала проверяются
// и попадают в отчёт, но не снимают готовность.
func (s *OrderService) Ready(ctx context.Context) (domain.Readiness, error) {
	if err := s.repo.Ping(ctx); err != nil {
		return domain.Readiness{}, storeErr(err)
	}

	r := domain.Readiness{Mirrors: map[string]string{
		domain.MirrorIndex: domain.StatusOK,
		domain.MirrorCache: domain.StatusOK,
	}}
	if err := s.index.Ping(ctx); err != nil {
		s.log.Warnf(ctx, "readiness: index degraded err=%v", err)
		r.Mirrors[domain.MirrorIndex] = err.Error()
	}
	if err := s.cache.Ping(ctx); err != nil {
		s.log.Warnf(ctx, "readiness: cache degraded err=%v", err)
		r.Mirrors[domain.MirrorCache] = err.Error()
	}
	return r, nil
}

// finish — метрика результата и статус спана.
func (s *OrderService) finish(span trace.Span, op string, err error) {
	metrics.OrderOperations.WithLabelValues(op, resultOf(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidRange):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func checkID(id int64) error {
	if id <= 0 {
		return domain.NewValidationError(domain.FieldViolation{Field: "id", Rule: "gt=0"})
	}
	return nil
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id=%d", domain.ErrNotFound, id)
}

// storeErr — сбой хранилища записей.
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
