package feed

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/guildlog/internal/common"
	"github.com/example/guildlog/internal/event"
)

const maxEventBytes = 1 << 20

// Server accepts encoded events pushed by a relay.
type Server struct {
	Pipeline Submitter
	Logger   zerolog.Logger
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/events", s.handle)
	return r
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("feed").Start(r.Context(), "feed.http")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes+1))
	if err != nil {
		s.respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}
	if len(body) > maxEventBytes {
		s.respondErr(ctx, w, http.StatusRequestEntityTooLarge, errors.New("event too large"))
		return
	}
	ev, err := event.Decode(body)
	if err != nil {
		s.respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}
	span.SetAttributes(attribute.String("event.kind", string(ev.Kind())))

	if !s.Pipeline.Submit(ctx, ev) {
		messageCounter.WithLabelValues("http", "dropped").Inc()
		http.Error(w, "delivery queue full", http.StatusServiceUnavailable)
		return
	}
	messageCounter.WithLabelValues("http", "accepted").Inc()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) respondErr(ctx context.Context, w http.ResponseWriter, status int, err error) {
	logger := common.WithContext(ctx, s.Logger)
	logger.Error().Err(err).Int("status", status).Msg("event feed handler error")
	messageCounter.WithLabelValues("http", "invalid").Inc()
	http.Error(w, err.Error(), status)
}
