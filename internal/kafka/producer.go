package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// Проверка, что RepairPublisher удовлетворяет порту очереди ремонта.
var _ ports.RepairQueue = (*RepairPublisher)(nil)

// writer — минимальный контракт над kafka.Writer.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerConfig — параметры публикации заявок на ремонт.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// RepairPublisher — публикует заявки на ремонт зеркал в Kafka.
// Ключ сообщения: id заказа: заявки одного заказа попадают в одну партицию.
type RepairPublisher struct {
	w         writer
	topic     string
	closeOnce sync.Once
}

// NewRepairPublisher — kafka.Writer с hash-балансировщиком и подтверждением от всех реплик.
func NewRepairPublisher(cfg ProducerConfig) *RepairPublisher {
	wt := cfg.WriteTimeout
	if wt <= 0 {
		wt = 5 * time.Second
	}
	return newRepairPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           wt,
		AllowAutoTopicCreation: true,
	}, cfg.Topic)
}

func newRepairPublisher(w writer, topic string) *RepairPublisher {
	return &RepairPublisher{w: w, topic: topic}
}

// Enqueue — опубликовать заявку.
func (p *RepairPublisher) Enqueue(ctx context.Context, req domain.RepairRequest) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal repair request: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(req.OrderID, 10)),
		Value: raw,
	})
	if err != nil {
		metrics.RepairRequestsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish repair request topic=%s order_id=%d: %w", p.topic, req.OrderID, err)
	}
	metrics.RepairRequestsPublished.WithLabelValues("ok").Inc()
	return nil
}

// Close — закрывает writer (дожидается отправки буфера).
func (p *RepairPublisher) Close() (retErr error) {
	p.closeOnce.Do(func() {
		retErr = p.w.Close()
	})
	return retErr
}
