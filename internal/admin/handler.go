package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/guildlog/internal/common"
	"github.com/example/guildlog/internal/delivery"
	"github.com/example/guildlog/internal/format"
	"github.com/example/guildlog/internal/routes"
)

var (
	ErrUnauthorized       = errors.New("administrator permission required")
	ErrInvalidDestination = errors.New("destination channel required")
)

var commandCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guildlog_admin_commands_total",
	Help: "Admin commands handled by command and status",
}, []string{"command", "status"})

const (
	CommandSetRoute    = "set_log_channel"
	CommandListRoutes  = "view_log_channels"
	CommandRemoveRoute = "remove_log_channel"
)

// Invocation identifies who issued a command in which tenant. Privileged is
// the platform's answer to "does the invoker hold administrator rights here".
type Invocation struct {
	TenantID   string
	InvokerID  string
	Privileged bool
}

type Status string

const (
	StatusConfigured        Status = "configured"
	StatusListed            Status = "listed"
	StatusRemoved           Status = "removed"
	StatusNothingConfigured Status = "nothing_configured"
)

type RouteState string

const (
	StateConfigured    RouteState = "configured"
	StateNotConfigured RouteState = "not_configured"
	StateUnresolvable  RouteState = "unresolvable"
)

type RouteStatus struct {
	Category  routes.Category `json:"category"`
	ChannelID string          `json:"channel_id,omitempty"`
	State     RouteState      `json:"state"`
}

// Reply is addressed to the invoker only.
type Reply struct {
	Status  Status        `json:"status"`
	Content string        `json:"content"`
	Warning string        `json:"warning,omitempty"`
	Routes  []RouteStatus `json:"routes,omitempty"`
}

type Handler struct {
	store     *routes.Store
	deliverer *delivery.Deliverer
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

func NewHandler(store *routes.Store, deliverer *delivery.Deliverer, logger zerolog.Logger) *Handler {
	return &Handler{
		store:     store,
		deliverer: deliverer,
		tracer:    otel.Tracer("admin"),
		logger:    logger,
		now:       time.Now,
	}
}

// SetRoute points category at channelID, then posts a confirmation into the
// channel. A failed confirmation is reported back as Reply.Warning.
func (h *Handler) SetRoute(ctx context.Context, inv Invocation, category, channelID string) (Reply, error) {
	ctx, span := h.start(ctx, CommandSetRoute, inv)
	defer span.End()

	c, err := h.authorize(inv, category)
	if err != nil {
		return h.fail(ctx, CommandSetRoute, inv, err)
	}
	if channelID == "" {
		return h.fail(ctx, CommandSetRoute, inv, ErrInvalidDestination)
	}
	if err := h.store.SetRoute(inv.TenantID, c, channelID); err != nil {
		return h.fail(ctx, CommandSetRoute, inv, err)
	}
	span.SetAttributes(attribute.String("category", string(c)), attribute.String("channel.id", channelID))

	reply := Reply{
		Status:  StatusConfigured,
		Content: fmt.Sprintf("✅ Successfully set <#%s> as the %s log channel.", channelID, c),
	}
	confirmation := format.Render("TEST", fmt.Sprintf("This channel now receives **%s** logs.", c), h.now())
	if outcome := h.deliverer.Deliver(ctx, channelID, confirmation); !outcome.Delivered() {
		reply.Warning = fmt.Sprintf("⚠️ Could not post a confirmation in <#%s> (%s). %s logs will likely not arrive there; check that the channel exists and I can send messages in it.",
			channelID, outcome.Status, capitalize(string(c)))
		span.SetAttributes(attribute.String("confirmation.outcome", string(outcome.Status)))
	}

	logger := common.WithContext(ctx, h.logger)
	logger.Info().Str("tenant_id", inv.TenantID).Str("invoker_id", inv.InvokerID).
		Str("category", string(c)).Str("channel_id", channelID).Bool("confirmed", reply.Warning == "").
		Msg("log route configured")
	commandCounter.WithLabelValues(CommandSetRoute, string(reply.Status)).Inc()
	return reply, nil
}

func (h *Handler) ListRoutes(ctx context.Context, inv Invocation) (Reply, error) {
	ctx, span := h.start(ctx, CommandListRoutes, inv)
	defer span.End()

	if !inv.Privileged {
		return h.fail(ctx, CommandListRoutes, inv, ErrUnauthorized)
	}

	configured := make(map[routes.Category]string)
	for _, r := range h.store.ListRoutes(inv.TenantID) {
		configured[r.Category] = r.ChannelID
	}

	var b strings.Builder
	b.WriteString("**📋 Configured Log Channels:**\n\n")
	statuses := make([]RouteStatus, 0, len(routes.Categories()))
	for _, c := range routes.Categories() {
		status := RouteStatus{Category: c, State: StateNotConfigured}
		channelID, ok := configured[c]
		switch {
		case !ok:
			fmt.Fprintf(&b, "%s: ❌ Not configured\n", c.DisplayName())
		case h.resolvable(ctx, channelID):
			status.ChannelID, status.State = channelID, StateConfigured
			fmt.Fprintf(&b, "%s: <#%s>\n", c.DisplayName(), channelID)
		default:
			status.ChannelID, status.State = channelID, StateUnresolvable
			fmt.Fprintf(&b, "%s: ⚠️ Channel not found (ID: %s)\n", c.DisplayName(), channelID)
		}
		statuses = append(statuses, status)
	}

	commandCounter.WithLabelValues(CommandListRoutes, string(StatusListed)).Inc()
	return Reply{Status: StatusListed, Content: b.String(), Routes: statuses}, nil
}

func (h *Handler) RemoveRoute(ctx context.Context, inv Invocation, category string) (Reply, error) {
	ctx, span := h.start(ctx, CommandRemoveRoute, inv)
	defer span.End()

	c, err := h.authorize(inv, category)
	if err != nil {
		return h.fail(ctx, CommandRemoveRoute, inv, err)
	}
	removed, err := h.store.RemoveRoute(inv.TenantID, c)
	if err != nil {
		return h.fail(ctx, CommandRemoveRoute, inv, err)
	}

	reply := Reply{
		Status:  StatusNothingConfigured,
		Content: fmt.Sprintf("No log channel was configured for %s.", c),
	}
	if removed {
		reply = Reply{
			Status:  StatusRemoved,
			Content: fmt.Sprintf("✅ Successfully removed the log channel configuration for %s.", c),
		}
		logger := common.WithContext(ctx, h.logger)
		logger.Info().Str("tenant_id", inv.TenantID).Str("invoker_id", inv.InvokerID).
			Str("category", string(c)).Msg("log route removed")
	}
	commandCounter.WithLabelValues(CommandRemoveRoute, string(reply.Status)).Inc()
	return reply, nil
}

// ErrorReply turns a command error into the text shown to the invoker.
func ErrorReply(err error) Reply {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return Reply{Content: "You need Administrator permissions to use this command."}
	case errors.Is(err, routes.ErrInvalidCategory):
		names := make([]string, 0, len(routes.Categories()))
		for _, c := range routes.Categories() {
			names = append(names, string(c))
		}
		return Reply{Content: "Unknown log category. Choose one of: " + strings.Join(names, ", ") + "."}
	case errors.Is(err, ErrInvalidDestination):
		return Reply{Content: "Please choose a channel to send logs to."}
	default:
		return Reply{Content: "Something went wrong while handling that command."}
	}
}

// authorize checks privilege before the category so unauthorized invokers
// learn nothing about valid input.
func (h *Handler) authorize(inv Invocation, category string) (routes.Category, error) {
	if !inv.Privileged {
		return "", ErrUnauthorized
	}
	return routes.ParseCategory(category)
}

func (h *Handler) resolvable(ctx context.Context, channelID string) bool {
	if h.deliverer == nil || h.deliverer.Resolver == nil {
		return false
	}
	dest, err := h.deliverer.Resolver.Resolve(ctx, channelID)
	return err == nil && dest != nil
}

func (h *Handler) start(ctx context.Context, command string, inv Invocation) (context.Context, trace.Span) {
	ctx, span := h.tracer.Start(ctx, "admin."+command)
	span.SetAttributes(
		attribute.String("tenant.id", inv.TenantID),
		attribute.String("invoker.id", inv.InvokerID),
		attribute.Bool("invoker.privileged", inv.Privileged),
	)
	return ctx, span
}

func (h *Handler) fail(ctx context.Context, command string, inv Invocation, err error) (Reply, error) {
	status := "invalid"
	if errors.Is(err, ErrUnauthorized) {
		status = "unauthorized"
	}
	commandCounter.WithLabelValues(command, status).Inc()
	logger := common.WithContext(ctx, h.logger)
	logger.Debug().Err(err).Str("command", command).
		Str("tenant_id", inv.TenantID).Str("invoker_id", inv.InvokerID).Msg("admin command rejected")
	return Reply{}, err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
