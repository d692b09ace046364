package feed

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/guildlog/internal/common"
	"github.com/example/guildlog/internal/event"
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher mirrors every submitted event onto a topic as an envelope, keyed
// by tenant so one tenant's events stay on one partition, then hands the
// event to Next. A failed publish never blocks local delivery.
type Publisher struct {
	Writer Writer
	Next   Submitter
	Logger zerolog.Logger
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    true,
	}
}

func (p *Publisher) Submit(ctx context.Context, ev event.Event) bool {
	p.publish(ctx, ev)
	if p.Next == nil {
		return true
	}
	return p.Next.Submit(ctx, ev)
}

func (p *Publisher) publish(ctx context.Context, ev event.Event) {
	ctx, span := otel.Tracer("feed").Start(ctx, "feed.publish")
	defer span.End()
	span.SetAttributes(attribute.String("event.kind", string(ev.Kind())), attribute.String("tenant.id", ev.Tenant()))

	logger := common.WithContext(ctx, p.Logger)
	body, err := event.Encode(ev)
	if err != nil {
		span.RecordError(err)
		messageCounter.WithLabelValues("publish", "invalid").Inc()
		logger.Error().Err(err).Str("kind", string(ev.Kind())).Msg("failed to encode event")
		return
	}
	if err := p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Tenant()), Value: body}); err != nil {
		span.RecordError(err)
		messageCounter.WithLabelValues("publish", "failed").Inc()
		logger.Warn().Err(err).Str("kind", string(ev.Kind())).Msg("failed to publish event")
		return
	}
	messageCounter.WithLabelValues("publish", "accepted").Inc()
}
