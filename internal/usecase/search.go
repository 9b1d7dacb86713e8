package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// Источники ответа поиска (метка метрик).
const (
	sourceCache = "cache"
	sourceIndex = "index"
	sourceStore = "store"
)

// Search — поиск по подстроке и диапазону дат с пагинацией.
// Поколение кэша страниц читается до запроса в индекс: страница, посчитанная до записи,
// сохраняется под старым поколением и после записи уже не отдаётся.
func (s *OrderService) Search(ctx context.Context, filter domain.OrderFilter) (_ *domain.OrderPage, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Search")
	defer func() { s.finish(span, "search", err) }()

	filter, err = filter.Normalize(s.opts.DefaultLimit, s.opts.MaxLimit)
	if err != nil {
		return nil, err
	}
	key := filter.CacheKey()
	span.SetAttributes(attribute.String("search.filter", key))

	start := time.Now()
	gen, genErr := s.searchCache.Generation(ctx)
	cacheable := genErr == nil
	if genErr != nil {
		s.log.Warnf(ctx, "searchCache.Generation failed err=%v (cache bypassed)", genErr)
	}

	if cacheable {
		page, found, getErr := s.searchCache.GetPage(ctx, gen, key)
		switch {
		case getErr != nil:
			s.log.Warnf(ctx, "searchCache.GetPage failed err=%v (treated as miss)", getErr)
		case found:
			observeSearch(sourceCache, start)
			return page, nil
		}
	}

	source := sourceIndex
	page, err := s.index.Search(ctx, filter)
	if err != nil {
		if !s.opts.FallbackToStore {
			s.log.Errorf(ctx, "index.Search failed err=%v", err)
			return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
		}
		s.log.Warnf(ctx, "index.Search failed err=%v (falling back to record store)", err)

		source = sourceStore
		page, err = s.repo.Search(ctx, filter)
		if err != nil {
			s.log.Errorf(ctx, "repo.Search failed err=%v", err)
			return nil, storeErr(err)
		}
	}
	observeSearch(source, start)
	span.SetAttributes(attribute.String("search.source", source), attribute.Int64("search.total", page.Total))

	if cacheable {
		if setErr := s.searchCache.SetPage(ctx, gen, key, page); setErr != nil {
			s.log.Warnf(ctx, "searchCache.SetPage failed err=%v", setErr)
		}
	}
	return page, nil
}

func observeSearch(source string, start time.Time) {
	metrics.SearchRequests.WithLabelValues(source).Inc()
	metrics.SearchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
