// Package redpanda publishes interview lifecycle events to a Redpanda/Kafka
// topic so interviewer tooling (dashboards, notifiers) can subscribe without
// polling the HTTP API.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

// DefaultTopic carries session.started, answer.recorded and
// session.completed records keyed by session ID.
const DefaultTopic = "interview-events"

// Publisher implements domain.EventPublisher on top of a Kafka producer.
// Delivery is at-most-once from the caller's perspective: the interview flow
// treats publish failures as non-fatal and only logs them.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher connects to the given seed brokers and ensures the events
// topic exists. Traces are propagated into record headers via kotel.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.new: no seed brokers provided")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(
			kotel.TracerProvider(otel.GetTracerProvider()),
		)),
	)

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(5),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.new: %w", err)
	}

	if err := ensureTopic(client, topic, 1, 1); err != nil {
		slog.Warn("event topic creation failed, assuming it exists",
			slog.String("topic", topic), slog.Any("error", err))
	}

	slog.Info("redpanda event publisher ready", slog.Any("brokers", brokers), slog.String("topic", topic))
	return &Publisher{client: client, topic: topic}, nil
}

// Publish produces one event record, keyed by session ID so per-session
// ordering is preserved within a partition.
func (p *Publisher) Publish(ctx context.Context, ev domain.SessionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("op=redpanda.publish: marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.SessionID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("op=redpanda.publish: produce %s: %w", ev.Type, err)
	}
	obsctx.LoggerFromContext(ctx).Debug("event published",
		slog.String("topic", p.topic),
		slog.String("type", ev.Type),
		slog.String("session_id", ev.SessionID))
	return nil
}

// Close flushes and releases the underlying client.
func (p *Publisher) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}

var _ domain.EventPublisher = (*Publisher)(nil)
