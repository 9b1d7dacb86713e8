package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Очередь ремонта зеркал (Kafka).
var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of messages fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of messages processed successfully",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of messages failed to process",
		},
		[]string{"topic"},
	)
	RepairRequestsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_repair_requests_published_total",
			Help: "Mirror repair requests sent to the repair queue",
		},
		[]string{"result"}, // ok|error|discarded
	)
)

// Кэши.
var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations",
		},
		[]string{"cache", "op"}, // cache: order|search; op: hit|miss|evicted|expired|deleted|invalidated
	)
	CacheSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Number of items currently in cache",
		},
		[]string{"cache"},
	)
)

// Сервис заказов.
var (
	OrderOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_operations_total",
			Help: "Order service operations by result",
		},
		[]string{"op", "result"}, // result: ok|invalid|not_found|error
	)
	MirrorSyncFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_mirror_sync_failures_total",
			Help: "Mirror (search index, cache) synchronization failures after retries",
		},
		[]string{"mirror", "op"},
	)
	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_search_requests_total",
			Help: "Search requests by the source that served them",
		},
		[]string{"source"}, // cache|index|store
	)
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_search_duration_seconds",
			Help:    "Search latency by source",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

var registerOnce sync.Once

// MustRegister — регистрирует метрики в глобальном реестре; повторный вызов безопасен.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			KafkaMessagesConsumed, KafkaMessagesProcessed, KafkaMessagesFailed, RepairRequestsPublished,
			CacheOps, CacheSize,
			OrderOperations, MirrorSyncFailures, SearchRequests, SearchDuration,
		)
	})
}
