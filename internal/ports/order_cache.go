package ports

import (
	"context"

	"github.com/Gunvolt24/ordersync/internal/domain"
)

// OrderCache — кэш заказов по id.
// Требования к реализации: потокобезопасность; возврат копий сущности.
type OrderCache interface {
	// Get — (order, true, nil) при попадании, (nil, false, nil) при промахе/истечении.
	Get(ctx context.Context, id int64) (*domain.Order, bool, error)

	// Set — сохранить/обновить заказ в кэше без проверки версии (прогрев, тесты).
	Set(ctx context.Context, order *domain.Order) error

	// Version — версия инвалидации записи id (0, если запись ни разу не сбрасывалась).
	// Её нужно прочитать ДО чтения заказа из хранилища.
	Version(ctx context.Context, id int64) (int64, error)

	// SetIfVersion — записать заказ, только если версия его id всё ещё равна version.
	// false без ошибки: запись пропущена, заказ успели изменить или удалить.
	SetIfVersion(ctx context.Context, order *domain.Order, version int64) (bool, error)

	// Delete — удалить запись и увеличить её версию; отсутствие записи не ошибка.
	Delete(ctx context.Context, id int64) error

	// WarmUp — массовая загрузка кэша (например, при старте).
	// Реализация должна поддерживать отмену контекста.
	WarmUp(ctx context.Context, orders []*domain.Order) error

	Ping(ctx context.Context) error
}

// SearchCache — кэш страниц поиска.
// Страницы хранятся под поколением (generation); любая запись увеличивает поколение,
// поэтому страницы, посчитанные до записи, становятся недостижимыми.
type SearchCache interface {
	// Generation — текущее поколение; его нужно прочитать ДО запроса в индекс.
	Generation(ctx context.Context) (int64, error)
	GetPage(ctx context.Context, gen int64, key string) (*domain.OrderPage, bool, error)
	SetPage(ctx context.Context, gen int64, key string, page *domain.OrderPage) error
	// InvalidateSearches — увеличить поколение.
	InvalidateSearches(ctx context.Context) error
}
