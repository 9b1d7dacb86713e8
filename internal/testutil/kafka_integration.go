//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

var reTopicUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// RepairTopic — отдельный топик очереди ремонта и consumer group на один тест.
// Топик создаётся сразу и к возврату уже читается.
func RepairTopic(ctx context.Context, t *testing.T, env *KafkaEnv) (topic, group string) {
	t.Helper()

	name := reTopicUnsafe.ReplaceAllString(t.Name(), "-")
	stamp := strings.ReplaceAll(time.Now().UTC().Format("150405.000000"), ".", "")
	topic = fmt.Sprintf("%s-%s-%s", env.BaseTopic, strings.ToLower(name), stamp)
	if len(topic) > 200 {
		topic = topic[len(topic)-200:]
	}
	group = topic + "-g"

	if err := createTopic(ctx, env.Brokers[0], topic); err != nil {
		t.Fatalf("create repair topic %q: %v", topic, err)
	}
	return topic, group
}

// WriteRaw — кладёт в топик произвольные байты в обход RepairPublisher.
func WriteRaw(ctx context.Context, t *testing.T, brokers []string, topic string, payloads ...[]byte) {
	t.Helper()

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
	}
	defer w.Close()

	msgs := make([]kafka.Message, 0, len(payloads))
	for _, p := range payloads {
		msgs = append(msgs, kafka.Message{Value: p})
	}
	if err := w.WriteMessages(ctx, msgs...); err != nil {
		t.Fatalf("write raw to %q: %v", topic, err)
	}
}

func createTopic(ctx context.Context, broker, topic string) error {
	addr := bootstrapHost(broker)

	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctrl, err := conn.Controller()
	if err != nil {
		return err
	}
	admin, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(ctrl.Host, strconv.Itoa(ctrl.Port)))
	if err != nil {
		return err
	}
	defer admin.Close()

	err = admin.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return err
	}
	return awaitPartitions(ctx, addr, topic)
}

// bootstrapHost — "PLAINTEXT://host:port,..." → "host:port".
func bootstrapHost(raw string) string {
	first, _, _ := strings.Cut(raw, ",")
	first = strings.TrimSpace(first)
	if u, err := url.Parse(first); err == nil && u.Host != "" {
		return u.Host
	}
	return first
}

func awaitPartitions(ctx context.Context, broker, topic string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	var lastErr error
	for {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			parts, perr := conn.ReadPartitions(topic)
			_ = conn.Close()
			if perr == nil && len(parts) > 0 {
				return nil
			}
			err = perr
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %q has no partitions: %w", topic, errors.Join(ctx.Err(), lastErr))
		case <-tick.C:
		}
	}
}
