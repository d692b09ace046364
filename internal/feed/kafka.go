package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/guildlog/internal/event"
)

var messageCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guildlog_feed_messages_total",
	Help: "Encoded events received from feeds by source and status",
}, []string{"source", "status"})

// Submitter is satisfied by *pipeline.Pipeline.
type Submitter interface {
	Submit(ctx context.Context, ev event.Event) bool
}

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	ReaderFactory func() Reader
	Pipeline      Submitter
	Logger        zerolog.Logger
}

func NewKafkaReader(brokers []string, groupID, topic string) Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
	})
}

// Run consumes until ctx is cancelled. Messages that fail to decode are
// logged and committed so they never block the partition.
func (c *Consumer) Run(ctx context.Context) error {
	if c.ReaderFactory == nil || c.Pipeline == nil {
		return errors.New("consumer requires a reader factory and a pipeline")
	}
	reader := c.ReaderFactory()
	defer reader.Close()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}
		c.handle(ctx, m)
		if err := reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	ctx, span := otel.Tracer("feed").Start(ctx, "feed.kafka")
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.topic", m.Topic),
		attribute.Int("messaging.partition", m.Partition),
		attribute.Int64("messaging.offset", m.Offset),
	)

	ev, err := event.Decode(m.Value)
	if err != nil {
		span.RecordError(err)
		messageCounter.WithLabelValues("kafka", "invalid").Inc()
		c.Logger.Error().Err(err).Int64("offset", m.Offset).Msg("failed to decode event")
		return
	}
	span.SetAttributes(attribute.String("event.kind", string(ev.Kind())))
	if !c.Pipeline.Submit(ctx, ev) {
		messageCounter.WithLabelValues("kafka", "dropped").Inc()
		return
	}
	messageCounter.WithLabelValues("kafka", "accepted").Inc()
}
