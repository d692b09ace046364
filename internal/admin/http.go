package admin

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/guildlog/internal/common"
	"github.com/example/guildlog/internal/routes"
)

// Server exposes the admin commands to an external command dispatcher. The
// dispatcher authenticates with a bearer token and vouches for the invoker
// through the x-invoker-* headers. A server without a token rejects every
// request.
type Server struct {
	handler *Handler
	token   string
	logger  zerolog.Logger
}

func NewServer(h *Handler, token string, logger zerolog.Logger) *Server {
	return &Server{handler: h, token: token, logger: logger}
}

type setRouteRequest struct {
	ChannelID string `json:"channel_id"`
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authenticate)
	r.Get("/v1/tenants/{tenant}/routes", s.list)
	r.Put("/v1/tenants/{tenant}/routes/{category}", s.set)
	r.Delete("/v1/tenants/{tenant}/routes/{category}", s.remove)
	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Without a token the invoker headers cannot be trusted, so nothing is served.
		if s.token == "" {
			http.Error(w, "admin api disabled", http.StatusUnauthorized)
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			http.Error(w, "invalid admin token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) set(w http.ResponseWriter, r *http.Request) {
	var req setRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErr(w, r, http.StatusBadRequest, err)
		return
	}
	reply, err := s.handler.SetRoute(r.Context(), invocation(r), chi.URLParam(r, "category"), req.ChannelID)
	s.respond(w, r, reply, err)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	reply, err := s.handler.ListRoutes(r.Context(), invocation(r))
	s.respond(w, r, reply, err)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	reply, err := s.handler.RemoveRoute(r.Context(), invocation(r), chi.URLParam(r, "category"))
	s.respond(w, r, reply, err)
}

func invocation(r *http.Request) Invocation {
	privileged, _ := strconv.ParseBool(r.Header.Get("x-invoker-privileged"))
	return Invocation{
		TenantID:   chi.URLParam(r, "tenant"),
		InvokerID:  r.Header.Get("x-invoker-id"),
		Privileged: privileged,
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, reply Reply, err error) {
	if err != nil {
		s.respondErr(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(reply)
}

func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := common.WithContext(r.Context(), s.logger)
	logger.Debug().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("admin request rejected")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorReply(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, routes.ErrInvalidCategory), errors.Is(err, ErrInvalidDestination):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
