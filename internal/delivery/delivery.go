package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/guildlog/internal/common"
)

type Status string

const (
	StatusDelivered                 Status = "delivered"
	StatusSkippedUnrouted           Status = "skipped-unrouted"
	StatusSkippedDestinationMissing Status = "skipped-destination-missing"
	StatusFailedTransient           Status = "failed-transient"
)

// Outcome is the result of one send attempt. Err is set for failures.
type Outcome struct {
	Status Status
	Err    error
}

func (o Outcome) Delivered() bool { return o.Status == StatusDelivered }

// ErrDestinationMissing is returned by resolvers when a channel id no longer
// names a reachable destination.
var ErrDestinationMissing = errors.New("destination missing")

// ErrTransient marks resolver failures that say nothing about whether the
// destination exists, such as rate limits or server errors.
var ErrTransient = errors.New("destination temporarily unavailable")

type Destination interface {
	Send(ctx context.Context, text string) error
}

type Resolver interface {
	Resolve(ctx context.Context, channelID string) (Destination, error)
}

var deliveryCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guildlog_deliveries_total",
	Help: "Send attempts to log destinations by outcome",
}, []string{"outcome"})

type Deliverer struct {
	Resolver Resolver
	Logger   zerolog.Logger
}

// Deliver resolves channelID and sends text to it once. It never returns an
// error; failures are reported through the Outcome and logged.
func (d *Deliverer) Deliver(ctx context.Context, channelID, text string) Outcome {
	ctx, span := otel.Tracer("delivery").Start(ctx, "delivery.deliver")
	defer span.End()
	span.SetAttributes(attribute.String("channel.id", channelID))

	outcome := d.deliver(ctx, channelID, text)
	span.SetAttributes(attribute.String("delivery.outcome", string(outcome.Status)))
	if outcome.Err != nil {
		span.RecordError(outcome.Err)
	}
	deliveryCounter.WithLabelValues(string(outcome.Status)).Inc()

	logger := common.WithContext(ctx, d.Logger)
	switch outcome.Status {
	case StatusSkippedDestinationMissing:
		logger.Info().Err(outcome.Err).Str("channel_id", channelID).Msg("log destination not found")
	case StatusFailedTransient:
		logger.Warn().Err(outcome.Err).Str("channel_id", channelID).Msg("failed to send log message")
	}
	return outcome
}

func (d *Deliverer) deliver(ctx context.Context, channelID, text string) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Status: StatusFailedTransient, Err: fmt.Errorf("%w: panic: %v", ErrTransient, r)}
		}
	}()
	if d.Resolver == nil {
		return Outcome{Status: StatusSkippedDestinationMissing, Err: ErrDestinationMissing}
	}
	dest, err := d.Resolver.Resolve(ctx, channelID)
	if err != nil {
		if isTransient(err) {
			return Outcome{Status: StatusFailedTransient, Err: err}
		}
		return Outcome{Status: StatusSkippedDestinationMissing, Err: err}
	}
	if dest == nil {
		return Outcome{Status: StatusSkippedDestinationMissing, Err: ErrDestinationMissing}
	}
	if err := dest.Send(ctx, text); err != nil {
		return Outcome{Status: StatusFailedTransient, Err: err}
	}
	return Outcome{Status: StatusDelivered}
}

func isTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
