// Package redpanda publishes interview lifecycle events to Redpanda/Kafka.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-assistant/internal/observability"
)

// DefaultTopic receives InterviewCompletedEvent records.
const DefaultTopic = "interview-completed"

const eventInterviewCompleted = "interview.completed"

// producer is the subset of *kgo.Client the publisher needs.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Ping(ctx context.Context) error
	Close()
}

// Publisher implements domain.InterviewEventPublisher.
type Publisher struct {
	client producer
	topic  string
}

var _ domain.InterviewEventPublisher = (*Publisher)(nil)

// NewPublisher connects to brokers and makes sure topic exists.
func NewPublisher(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.NewPublisher: no seed brokers provided")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	tracing := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))))
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
		kgo.DialTimeout(10*time.Second),
		kgo.WithHooks(tracing.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.NewPublisher: %w", err)
	}
	if err := ensureTopic(ctx, client, topic, 1, 1); err != nil {
		slog.Warn("failed to ensure topic; continuing", slog.String("topic", topic), slog.Any("error", err))
	}
	slog.Info("redpanda publisher ready", slog.Any("brokers", brokers), slog.String("topic", topic))
	return newPublisher(client, topic), nil
}

func newPublisher(client producer, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// buildRecord keys the record by candidate so one candidate's events stay ordered.
func buildRecord(topic string, ev domain.InterviewCompletedEvent) (*kgo.Record, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(ev.CandidateID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(eventInterviewCompleted)},
			{Key: "interview_id", Value: []byte(ev.InterviewID)},
		},
	}, nil
}

// PublishInterviewCompleted produces ev synchronously.
func (p *Publisher) PublishInterviewCompleted(ctx context.Context, ev domain.InterviewCompletedEvent) error {
	rec, err := buildRecord(p.topic, ev)
	if err != nil {
		return fmt.Errorf("op=redpanda.publish: %w", err)
	}
	if rid := obsctx.RequestIDFromContext(ctx); rid != "" {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: "request_id", Value: []byte(rid)})
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("op=redpanda.publish: %w: %w", domain.ErrUpstream, err)
	}
	obsctx.LoggerFromContext(ctx).Debug("interview event published",
		slog.String("topic", p.topic),
		slog.String("candidate_id", ev.CandidateID),
		slog.String("interview_id", ev.InterviewID))
	return nil
}

// Ping checks broker connectivity for readiness probes.
func (p *Publisher) Ping(ctx context.Context) error { return p.client.Ping(ctx) }

// Close flushes and closes the client.
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
