package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/example/guildlog/internal/delivery"
)

const defaultSendTimeout = 5 * time.Second

// Resolver looks channels up in the session state first and falls back to
// the REST API. Every REST call is bounded by Timeout.
type Resolver struct {
	Session *discordgo.Session
	Timeout time.Duration
}

func (r *Resolver) Resolve(ctx context.Context, channelID string) (delivery.Destination, error) {
	if channelID == "" {
		return nil, delivery.ErrDestinationMissing
	}
	if r.Session.State != nil {
		if _, err := r.Session.State.Channel(channelID); err == nil {
			return &channelDestination{session: r.Session, channelID: channelID, timeout: r.timeout()}, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	if _, err := r.Session.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("resolve channel %s: %w", channelID, ctx.Err())
		}
		switch class := classify(err); class {
		case "not_found", "permission":
			return nil, fmt.Errorf("resolve channel %s (%s): %w: %v", channelID, class, delivery.ErrDestinationMissing, err)
		default:
			return nil, fmt.Errorf("resolve channel %s (%s): %w: %v", channelID, class, delivery.ErrTransient, err)
		}
	}
	return &channelDestination{session: r.Session, channelID: channelID, timeout: r.timeout()}, nil
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout <= 0 {
		return defaultSendTimeout
	}
	return r.Timeout
}

type channelDestination struct {
	session   *discordgo.Session
	channelID string
	timeout   time.Duration
}

func (d *channelDestination) Send(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if _, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("send to %s: %w", d.channelID, ctx.Err())
		}
		return fmt.Errorf("send to %s (%s): %w", d.channelID, classify(err), err)
	}
	return nil
}

// classify names the kind of REST failure for logs.
func classify(err error) string {
	var limited *discordgo.RateLimitError
	if errors.As(err, &limited) {
		return "rate_limited"
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return "transport"
	}
	switch code := restErr.Response.StatusCode; {
	case code == http.StatusForbidden:
		return "permission"
	case code == http.StatusNotFound:
		return "not_found"
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code >= 500:
		return "server"
	default:
		return "rejected"
	}
}
