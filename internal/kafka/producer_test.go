package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"vigil/internal/config"
	"vigil/internal/models"
)

func TestToMessage(t *testing.T) {
	triggered := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	inst := &models.AlertInstance{
		ID:              "alert-1",
		ConfigurationID: "cfg-1",
		RuleID:          "rule-load",
		Status:          models.AlertTriggered,
		Severity:        models.SeverityCritical,
		Title:           "Energy spike",
		TriggeredAt:     triggered,
	}

	msg, err := toMessage(inst)
	if err != nil {
		t.Fatal(err)
	}

	if string(msg.Key) != "cfg-1" {
		t.Errorf("key = %q, alerts must partition by configuration", msg.Key)
	}
	if !msg.Time.Equal(triggered) {
		t.Errorf("message time = %v", msg.Time)
	}

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["alert_id"] != "alert-1" || headers["rule_id"] != "rule-load" || headers["severity"] != "critical" {
		t.Errorf("headers = %v", headers)
	}

	var decoded models.AlertInstance
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded.ID != "alert-1" || decoded.Title != "Energy spike" {
		t.Errorf("decoded payload = %+v", decoded)
	}
}

func TestNewProducerValidation(t *testing.T) {
	if _, err := NewProducer(nil, "alerts", config.ProducerConfig{}); err == nil {
		t.Error("missing brokers accepted")
	}
	if _, err := NewProducer([]string{"localhost:9092"}, "", config.ProducerConfig{}); err == nil {
		t.Error("missing topic accepted")
	}
}

func TestProducerPoolSizeDefault(t *testing.T) {
	p, err := NewProducer([]string{"localhost:9092"}, "alerts", config.ProducerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if len(p.writers) != 4 {
		t.Errorf("pool size = %d, want default 4", len(p.writers))
	}
}

func TestProducerRejectsAfterClose(t *testing.T) {
	p, err := NewProducer([]string{"localhost:9092"}, "alerts", config.ProducerConfig{PoolSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	err = p.Publish(context.Background(), &models.AlertInstance{ID: "a1"})
	if err != ErrProducerClosed {
		t.Errorf("Publish after close = %v, want ErrProducerClosed", err)
	}

	// double close is a no-op
	if err := p.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestPublishBatchEmptyIsNoop(t *testing.T) {
	p, err := NewProducer([]string{"localhost:9092"}, "alerts", config.ProducerConfig{PoolSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.PublishBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch = %v", err)
	}
	if stats := p.Stats(); stats.Published != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGetCompression(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"gzip", "gzip"},
		{"snappy", "snappy"},
		{"lz4", "lz4"},
		{"zstd", "zstd"},
		{"", "uncompressed"},
		{"brotli", "uncompressed"},
	}
	for _, tt := range tests {
		if got := getCompression(tt.name).Codec(); got != nil {
			if got.Name() != tt.want {
				t.Errorf("getCompression(%q) = %q, want %q", tt.name, got.Name(), tt.want)
			}
		} else if tt.want != "uncompressed" {
			t.Errorf("getCompression(%q) returned no codec", tt.name)
		}
	}
}
