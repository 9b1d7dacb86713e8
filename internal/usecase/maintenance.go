package usecase

import (
	"context"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultReindexBatch — размер пачки полной переиндексации по умолчанию.
const DefaultReindexBatch = 500

// ReindexAll — пересобрать индекс из хранилища без очистки: поиск во время обхода
// продолжает отвечать. Сначала все заказы заливаются пачками по id, затем индекс
// обходится по id и документы без строки в хранилище удаляются.
// Возвращает число проиндексированных заказов.
func (s *OrderService) ReindexAll(ctx context.Context, batch int) (n int, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.ReindexAll")
	var removed int
	defer func() {
		span.SetAttributes(attribute.Int("reindex.count", n), attribute.Int("reindex.removed", removed))
		s.finish(span, "reindex", err)
	}()

	if batch <= 0 {
		batch = DefaultReindexBatch
	}

	start := time.Now()
	var afterID int64
	for {
		list, listErr := s.repo.ListAfter(ctx, afterID, batch)
		if listErr != nil {
			s.log.Errorf(ctx, "repo.ListAfter failed after_id=%d err=%v", afterID, listErr)
			return n, storeErr(listErr)
		}
		if len(list) == 0 {
			break
		}
		gone, syncErr := s.syncIndexed(ctx, list)
		removed += gone
		if syncErr != nil {
			return n, syncErr
		}
		n += len(list) - gone
		afterID = list[len(list)-1].ID
		if len(list) < batch {
			break
		}
	}

	gone, err := s.sweepIndex(ctx, batch)
	removed += gone
	if err != nil {
		return n, err
	}

	if invErr := s.searchCache.InvalidateSearches(ctx); invErr != nil {
		s.log.Warnf(ctx, "searchCache.InvalidateSearches failed err=%v", invErr)
	}
	s.log.Infof(ctx, "reindexed %d orders, removed %d stale documents in %s", n, removed, time.Since(start))
	return n, nil
}

// syncIndexed — записать строки в индекс и перечитать их из хранилища.
// Строка, удалённая после чтения, убирается из индекса; изменённая перезаписывается свежей версией.
// Возвращает число удалённых документов.
func (s *OrderService) syncIndexed(ctx context.Context, rows []*domain.Order) (int, error) {
	if err := s.index.Upsert(ctx, rows); err != nil {
		s.log.Errorf(ctx, "index.Upsert failed from_id=%d err=%v", rows[0].ID, err)
		return 0, err
	}

	ids := make([]int64, 0, len(rows))
	for _, o := range rows {
		ids = append(ids, o.ID)
	}
	fresh, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		s.log.Errorf(ctx, "repo.ListByIDs failed from_id=%d err=%v", ids[0], err)
		return 0, storeErr(err)
	}
	return s.applyStoreState(ctx, rows, fresh)
}

// sweepIndex — обход индекса по id: документ, которого нет в хранилище, удаляется,
// документ с другим updated_at перезаписывается из хранилища.
func (s *OrderService) sweepIndex(ctx context.Context, batch int) (removed int, err error) {
	var afterID int64
	for {
		docs, listErr := s.index.ListAfter(ctx, afterID, batch)
		if listErr != nil {
			s.log.Errorf(ctx, "index.ListAfter failed after_id=%d err=%v", afterID, listErr)
			return removed, listErr
		}
		if len(docs) == 0 {
			return removed, nil
		}

		ids := make([]int64, 0, len(docs))
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		rows, repoErr := s.repo.ListByIDs(ctx, ids)
		if repoErr != nil {
			s.log.Errorf(ctx, "repo.ListByIDs failed after_id=%d err=%v", afterID, repoErr)
			return removed, storeErr(repoErr)
		}
		gone, applyErr := s.applyStoreState(ctx, docs, rows)
		removed += gone
		if applyErr != nil {
			return removed, applyErr
		}

		afterID = docs[len(docs)-1].ID
		if len(docs) < batch {
			return removed, nil
		}
	}
}

// applyStoreState — привести документы индекса docs к строкам хранилища rows.
func (s *OrderService) applyStoreState(ctx context.Context, docs, rows []*domain.Order) (removed int, err error) {
	byID := make(map[int64]*domain.Order, len(rows))
	for _, o := range rows {
		byID[o.ID] = o
	}

	var changed []*domain.Order
	for _, d := range docs {
		row, ok := byID[d.ID]
		if !ok {
			if err := s.index.Delete(ctx, d.ID); err != nil {
				s.log.Errorf(ctx, "index.Delete failed id=%d err=%v", d.ID, err)
				return removed, err
			}
			removed++
			continue
		}
		if !row.UpdatedAt.Equal(d.UpdatedAt) {
			changed = append(changed, row)
		}
	}
	if len(changed) > 0 {
		if err := s.index.Upsert(ctx, changed); err != nil {
			s.log.Errorf(ctx, "index.Upsert failed refreshed=%d err=%v", len(changed), err)
			return removed, err
		}
	}
	return removed, nil
}

// WarmUpCache — прогрев кэша последними N заказами из БД.
// Если n <= 0, прогрев не выполняется (но это не ошибка).
func (s *OrderService) WarmUpCache(ctx context.Context, n int) error {
	if n <= 0 {
		s.log.Warnf(ctx, "cache warm-up skipped: n <= 0 (n=%d)", n)
		return nil
	}

	start := time.Now()
	list, err := s.repo.LastN(ctx, n)
	if err != nil {
		s.log.Errorf(ctx, "repo.LastN failed n=%d err=%v", n, err)
		return storeErr(err)
	}
	if warmUpErr := s.cache.WarmUp(ctx, list); warmUpErr != nil {
		s.log.Warnf(ctx, "cache.WarmUp failed err=%v", warmUpErr)
	}
	s.log.Infof(ctx, "cache warmed with %d orders in %s", len(list), time.Since(start))
	return nil
}
