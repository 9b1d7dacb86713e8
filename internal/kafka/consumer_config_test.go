package kafka

import (
	"slices"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

func TestConsumerConfig_ReaderConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		startOffset string
		wantOffset  int64
	}{
		{"first", kafkago.FirstOffset},
		{" FiRsT \n", kafkago.FirstOffset},
		{"", kafkago.LastOffset},
		{"LAST", kafkago.LastOffset},
		{"unknown", kafkago.LastOffset},
	}

	for _, tt := range tests {
		cfg := ConsumerConfig{Brokers: []string{"k1:9092", "k2:9092"}, Topic: "orders.repair", GroupID: "repair", StartOffset: tt.startOffset}
		rc := cfg.ReaderConfig()

		if rc.StartOffset != tt.wantOffset {
			t.Fatalf("StartOffset(%q): want %d, got %d", tt.startOffset, tt.wantOffset, rc.StartOffset)
		}
		if !slices.Equal(rc.Brokers, cfg.Brokers) || rc.Topic != cfg.Topic || rc.GroupID != cfg.GroupID {
			t.Fatalf("base fields not propagated: %+v", rc)
		}
		// ручной коммит
		if rc.CommitInterval != 0 {
			t.Fatalf("CommitInterval: want 0, got %v", rc.CommitInterval)
		}
		if rc.MinBytes != 1 || rc.MaxWait <= 0 {
			t.Fatalf("small-batch tuning expected, got MinBytes=%d MaxWait=%v", rc.MinBytes, rc.MaxWait)
		}
	}
}

func TestConsumerConfig_Validate(t *testing.T) {
	t.Parallel()

	ok := ConsumerConfig{Brokers: []string{"k:9092"}, Topic: "t", GroupID: "g"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := ConsumerConfig{Topic: " "}
	err := bad.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"no brokers", "empty topic", "empty group id"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q must mention %q", err, want)
		}
	}
}

func TestConsumerConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	c := ConsumerConfig{}.withDefaults()
	if c.ProcessTimeout != 5*time.Second || c.RetryInitial != time.Second || c.RetryMax != 30*time.Second {
		t.Fatalf("defaults wrong: %+v", c)
	}

	// потолок не может быть меньше первой паузы
	c = ConsumerConfig{RetryInitial: time.Minute, RetryMax: time.Second}.withDefaults()
	if c.RetryMax != time.Minute {
		t.Fatalf("RetryMax: want 1m, got %v", c.RetryMax)
	}

	c = ConsumerConfig{ProcessTimeout: time.Second, RetryInitial: 100 * time.Millisecond, RetryMax: 2 * time.Second}.withDefaults()
	if c.ProcessTimeout != time.Second || c.RetryInitial != 100*time.Millisecond || c.RetryMax != 2*time.Second {
		t.Fatalf("explicit values must be kept: %+v", c)
	}
}

