package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/guildlog/internal/common"
	"github.com/example/guildlog/internal/delivery"
	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/format"
	"github.com/example/guildlog/internal/normalize"
	"github.com/example/guildlog/internal/routes"
)

const (
	defaultWorkers   = 8
	defaultQueueSize = 1024
)

var (
	eventCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildlog_events_total",
		Help: "Platform events observed by kind and result",
	}, []string{"kind", "result"})
	entryCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildlog_entries_total",
		Help: "Normalized log entries by category and delivery outcome",
	}, []string{"category", "outcome"})
)

type Options struct {
	Workers   int
	QueueSize int
}

type job struct {
	ctx     context.Context
	id      string
	kind    event.Kind
	tenant  string
	entries []normalize.Entry
}

// Pipeline turns events into log lines and hands them to a pool of delivery
// workers. Lines of one event are delivered in order by a single worker.
type Pipeline struct {
	normalizer *normalize.Normalizer
	router     routes.Router
	deliverer  *delivery.Deliverer
	logger     zerolog.Logger

	jobs   chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func New(n *normalize.Normalizer, router routes.Router, d *delivery.Deliverer, logger zerolog.Logger, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = defaultWorkers
	}
	// An unbuffered queue would make the non-blocking Submit drop nearly everything.
	if opts.QueueSize < 1 {
		opts.QueueSize = defaultQueueSize
	}
	p := &Pipeline{
		normalizer: n,
		router:     router,
		deliverer:  d,
		logger:     logger,
		jobs:       make(chan job, opts.QueueSize),
	}
	p.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go p.work()
	}
	return p
}

// Submit normalizes ev and queues its entries for delivery. It never blocks:
// when the queue is full the event is dropped and false is returned.
func (p *Pipeline) Submit(ctx context.Context, ev event.Event) bool {
	if ev == nil {
		return false
	}
	entries := p.normalizer.Normalize(ev)
	if len(entries) == 0 {
		eventCounter.WithLabelValues(string(ev.Kind()), "ignored").Inc()
		return true
	}
	j := job{
		ctx:     context.WithoutCancel(ctx),
		id:      uuid.NewString(),
		kind:    ev.Kind(),
		tenant:  ev.Tenant(),
		entries: entries,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		eventCounter.WithLabelValues(string(j.kind), "closed").Inc()
		return false
	}
	select {
	case p.jobs <- j:
		eventCounter.WithLabelValues(string(j.kind), "queued").Inc()
		return true
	default:
		eventCounter.WithLabelValues(string(j.kind), "dropped").Inc()
		p.logger.Warn().Str("event_id", j.id).Str("kind", string(j.kind)).Str("tenant_id", j.tenant).
			Int("entries", len(entries)).Msg("delivery queue full, dropping event")
		return false
	}
}

// Close stops intake and waits for queued events to be delivered.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pipeline) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.process(j)
	}
}

func (p *Pipeline) process(j job) {
	ctx, span := otel.Tracer("pipeline").Start(j.ctx, "pipeline.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", j.id),
		attribute.String("event.kind", string(j.kind)),
		attribute.String("tenant.id", j.tenant),
	)
	logger := common.WithContext(ctx, p.logger).With().
		Str("event_id", j.id).Str("kind", string(j.kind)).Str("tenant_id", j.tenant).Logger()

	for _, entry := range j.entries {
		outcome := p.deliverEntry(ctx, span, logger, entry)
		entryCounter.WithLabelValues(string(entry.Category), string(outcome.Status)).Inc()
		if outcome.Status == delivery.StatusSkippedUnrouted {
			logger.Debug().Str("category", string(entry.Category)).Msg("no log channel configured")
		}
	}
}

// deliverEntry contains a panic to the one entry that raised it.
func (p *Pipeline) deliverEntry(ctx context.Context, span trace.Span, logger zerolog.Logger, entry normalize.Entry) (outcome delivery.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			logger.Error().Interface("panic", r).Str("category", string(entry.Category)).Msg("log entry delivery panicked")
			outcome = delivery.Outcome{Status: delivery.StatusFailedTransient, Err: err}
		}
	}()
	return p.route(ctx, entry)
}

func (p *Pipeline) route(ctx context.Context, entry normalize.Entry) delivery.Outcome {
	channelID, ok := p.router.Resolve(entry.TenantID, entry.Category)
	if !ok {
		return delivery.Outcome{Status: delivery.StatusSkippedUnrouted}
	}
	return p.deliverer.Deliver(ctx, channelID, format.Render(entry.Label, entry.Body, entry.Timestamp))
}
