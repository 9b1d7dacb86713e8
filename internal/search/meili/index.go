// Package meili — поисковый индекс заказов на Meilisearch.
package meili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/internal/search"
	"github.com/meilisearch/meilisearch-go"
)

// Проверка, что Index удовлетворяет интерфейсу SearchIndex.
var _ ports.SearchIndex = (*Index)(nil)

// documents — используемая часть meilisearch.IndexManager (подменяется в тестах).
type documents interface {
	AddDocumentsWithContext(ctx context.Context, documentsPtr interface{}, primaryKey ...string) (*meilisearch.TaskInfo, error)
	DeleteDocumentWithContext(ctx context.Context, identifier string) (*meilisearch.TaskInfo, error)
	SearchRawWithContext(ctx context.Context, query string, request *meilisearch.SearchRequest) (*json.RawMessage, error)
	UpdateFilterableAttributesWithContext(ctx context.Context, request *[]string) (*meilisearch.TaskInfo, error)
	UpdateSortableAttributesWithContext(ctx context.Context, request *[]string) (*meilisearch.TaskInfo, error)
	UpdatePaginationWithContext(ctx context.Context, request *meilisearch.Pagination) (*meilisearch.TaskInfo, error)
	WaitForTaskWithContext(ctx context.Context, taskUID int64, interval time.Duration) (*meilisearch.Task, error)
}

// service — используемая часть meilisearch.ServiceManager.
type service interface {
	CreateIndexWithContext(ctx context.Context, config *meilisearch.IndexConfig) (*meilisearch.TaskInfo, error)
	HealthWithContext(ctx context.Context) (*meilisearch.Health, error)
}

// DefaultMaxTotalHits — потолок pagination.maxTotalHits; у Meilisearch по умолчанию 1000,
// и страницы за этой границей приходят пустыми.
const DefaultMaxTotalHits = 1_000_000

// Options — параметры адаптера.
type Options struct {
	IndexUID     string
	WaitForTasks bool          // ждать применения записи (запись видна поиску после возврата)
	PollInterval time.Duration // период опроса статуса задачи
	MaxTotalHits int64         // сколько совпадений поиск может пролистать и посчитать
}

// Index — адаптер индекса заказов.
type Index struct {
	svc  service
	docs documents
	opts Options
	log  ports.Logger

	// enableContains — включить экспериментальный оператор CONTAINS на сервере.
	enableContains func(ctx context.Context) error
}

// New — адаптер поверх клиента meilisearch-go.
func New(client meilisearch.ServiceManager, opts Options, log ports.Logger) *Index {
	ix := newIndex(client, client.Index(opts.IndexUID), opts, log)
	ix.enableContains = func(ctx context.Context) error {
		_, err := client.ExperimentalFeatures().SetContainsFilter(true).UpdateWithContext(ctx)
		return err
	}
	return ix
}

func newIndex(svc service, docs documents, opts Options, log ports.Logger) *Index {
	if opts.IndexUID == "" {
		opts.IndexUID = "orders"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	if opts.MaxTotalHits <= 0 {
		opts.MaxTotalHits = DefaultMaxTotalHits
	}
	return &Index{svc: svc, docs: docs, opts: opts, log: log, enableContains: func(context.Context) error { return nil }}
}

// orderDocument — явное представление заказа в индексе.
type orderDocument struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"` // Unix-микросекунды
	UpdatedAt   int64  `json:"updated_at"` // Unix-микросекунды

	SearchText []string `json:"search_text,omitempty"`
}

func toDocument(o *domain.Order) orderDocument {
	return orderDocument{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		CreatedAt:   o.CreatedAt.UnixMicro(),
		UpdatedAt:   o.UpdatedAt.UnixMicro(),
		SearchText:  search.TextChunks(o.Name, o.Description),
	}
}

func (d orderDocument) toOrder() *domain.Order {
	return &domain.Order{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   time.UnixMicro(d.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMicro(d.UpdatedAt).UTC(),
	}
}

// EnsureIndex — включить CONTAINS, создать индекс (если его нет) и применить настройки
// фильтрации, сортировки и пагинации.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	if err := ix.enableContains(ctx); err != nil {
		return fmt.Errorf("meili: enable contains filter: %w", err)
	}

	info, err := ix.svc.CreateIndexWithContext(ctx, &meilisearch.IndexConfig{Uid: ix.opts.IndexUID, PrimaryKey: search.AttrID})
	if err != nil {
		return fmt.Errorf("meili: create index: %w", err)
	}
	// index_already_exists — штатная ситуация при повторном старте
	if err := ix.wait(ctx, info, true); err != nil {
		ix.log.Infof(ctx, "meili: create index %s: %v", ix.opts.IndexUID, err)
	}

	filterable := append([]string(nil), search.FilterableAttributes...)
	info, err = ix.docs.UpdateFilterableAttributesWithContext(ctx, &filterable)
	if err != nil {
		return fmt.Errorf("meili: filterable attributes: %w", err)
	}
	if err := ix.wait(ctx, info, true); err != nil {
		return fmt.Errorf("meili: filterable attributes: %w", err)
	}

	sortable := append([]string(nil), search.SortableAttributes...)
	info, err = ix.docs.UpdateSortableAttributesWithContext(ctx, &sortable)
	if err != nil {
		return fmt.Errorf("meili: sortable attributes: %w", err)
	}
	if err := ix.wait(ctx, info, true); err != nil {
		return fmt.Errorf("meili: sortable attributes: %w", err)
	}

	info, err = ix.docs.UpdatePaginationWithContext(ctx, &meilisearch.Pagination{MaxTotalHits: ix.opts.MaxTotalHits})
	if err != nil {
		return fmt.Errorf("meili: pagination: %w", err)
	}
	if err := ix.wait(ctx, info, true); err != nil {
		return fmt.Errorf("meili: pagination: %w", err)
	}
	return nil
}

// Upsert — добавление/замена документов.
func (ix *Index) Upsert(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	docs := make([]orderDocument, 0, len(orders))
	for _, o := range orders {
		docs = append(docs, toDocument(o))
	}
	info, err := ix.docs.AddDocumentsWithContext(ctx, &docs, search.AttrID)
	if err != nil {
		return fmt.Errorf("meili: add documents: %w", err)
	}
	return ix.wait(ctx, info, false)
}

// Delete — удаление документа; отсутствие документа не ошибка.
func (ix *Index) Delete(ctx context.Context, id int64) error {
	info, err := ix.docs.DeleteDocumentWithContext(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Errorf("meili: delete document %d: %w", id, err)
	}
	return ix.wait(ctx, info, false)
}

// ListAfter — документы по возрастанию id после afterID.
// Каждая страница начинается с offset 0, поэтому обход не упирается в maxTotalHits.
func (ix *Index) ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		return nil, nil
	}
	resp, err := ix.searchRaw(ctx, &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Filter: fmt.Sprintf("%s > %d", search.AttrID, afterID),
		Sort:   []string{search.AttrID + ":asc"},
	})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		out = append(out, hit.toOrder())
	}
	return out, nil
}

// searchResponse — нужные поля ответа поиска.
type searchResponse struct {
	Hits               []orderDocument `json:"hits"`
	EstimatedTotalHits int64           `json:"estimatedTotalHits"`
	Offset             int64           `json:"offset"`
	Limit              int64           `json:"limit"`
}

// Search — поиск только фильтром (пустая строка запроса): подстрока задаётся оператором CONTAINS.
func (ix *Index) Search(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	req := &meilisearch.SearchRequest{
		Offset: int64(filter.Offset),
		Limit:  int64(filter.Limit),
		Sort:   search.MeiliSort(filter.Sort),
	}
	if expr := search.MeiliFilter(filter); expr != "" {
		req.Filter = expr
	}

	resp, err := ix.searchRaw(ctx, req)
	if err != nil {
		return nil, err
	}

	page := &domain.OrderPage{
		Orders: make([]*domain.Order, 0, len(resp.Hits)),
		Total:  resp.EstimatedTotalHits,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}
	for _, hit := range resp.Hits {
		page.Orders = append(page.Orders, hit.toOrder())
	}
	return page, nil
}

func (ix *Index) searchRaw(ctx context.Context, req *meilisearch.SearchRequest) (*searchResponse, error) {
	raw, err := ix.docs.SearchRawWithContext(ctx, "", req)
	if err != nil {
		return nil, fmt.Errorf("meili: search: %w", err)
	}
	if raw == nil {
		return nil, errors.New("meili: search: empty response")
	}

	var resp searchResponse
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, fmt.Errorf("meili: decode search response: %w", err)
	}
	return &resp, nil
}

// Ping — статус сервера.
func (ix *Index) Ping(ctx context.Context) error {
	h, err := ix.svc.HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("meili: health: %w", err)
	}
	if h != nil && h.Status != "available" {
		return fmt.Errorf("meili: status %q", h.Status)
	}
	return nil
}

// wait — дождаться завершения задачи; force — ждать даже при выключенном WaitForTasks.
func (ix *Index) wait(ctx context.Context, info *meilisearch.TaskInfo, force bool) error {
	if info == nil || (!ix.opts.WaitForTasks && !force) {
		return nil
	}
	task, err := ix.docs.WaitForTaskWithContext(ctx, info.TaskUID, ix.opts.PollInterval)
	if err != nil {
		return fmt.Errorf("meili: wait task %d: %w", info.TaskUID, err)
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return fmt.Errorf("meili: task %d failed: %s (%s)", task.UID, task.Error.Message, task.Error.Code)
	}
	return nil
}
