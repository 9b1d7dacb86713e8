package ports

import "context"

// MessageConsumer — фоновый обработчик сообщений брокера.
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
