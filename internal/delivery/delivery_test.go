package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDestination struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeDestination) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeResolver struct {
	destinations map[string]*fakeDestination
	err          error
}

func (f fakeResolver) Resolve(_ context.Context, channelID string) (Destination, error) {
	if f.err != nil {
		return nil, f.err
	}
	dest, ok := f.destinations[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, ErrDestinationMissing)
	}
	return dest, nil
}

func TestDeliver(t *testing.T) {
	ok := &fakeDestination{}
	rejecting := &fakeDestination{err: errors.New("403 missing access")}
	slow := &fakeDestination{err: fmt.Errorf("send: %w", context.DeadlineExceeded)}
	resolver := fakeResolver{destinations: map[string]*fakeDestination{
		"ok": ok, "rejecting": rejecting, "slow": slow,
	}}

	tests := []struct {
		name      string
		resolver  Resolver
		channelID string
		want      Status
	}{
		{name: "delivered", resolver: resolver, channelID: "ok", want: StatusDelivered},
		{name: "unknown channel", resolver: resolver, channelID: "gone", want: StatusSkippedDestinationMissing},
		{name: "send rejected", resolver: resolver, channelID: "rejecting", want: StatusFailedTransient},
		{name: "send timeout", resolver: resolver, channelID: "slow", want: StatusFailedTransient},
		{name: "resolve timeout", resolver: fakeResolver{err: context.DeadlineExceeded}, channelID: "ok", want: StatusFailedTransient},
		{name: "resolve unavailable", resolver: fakeResolver{err: fmt.Errorf("channel ok: %w", ErrTransient)}, channelID: "ok", want: StatusFailedTransient},
		{name: "no resolver", channelID: "ok", want: StatusSkippedDestinationMissing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := &Deliverer{Resolver: tc.resolver, Logger: zerolog.Nop()}
			var outcome Outcome
			require.NotPanics(t, func() {
				outcome = d.Deliver(context.Background(), tc.channelID, "hello")
			})
			assert.Equal(t, tc.want, outcome.Status)
			if tc.want != StatusDelivered {
				assert.Error(t, outcome.Err)
			}
		})
	}

	assert.Equal(t, []string{"hello"}, ok.sent)
}

type nilResolver struct{}

func (nilResolver) Resolve(context.Context, string) (Destination, error) { return nil, nil }

func TestDeliverNilDestination(t *testing.T) {
	d := &Deliverer{Resolver: nilResolver{}, Logger: zerolog.Nop()}
	outcome := d.Deliver(context.Background(), "x", "hi")
	assert.Equal(t, StatusSkippedDestinationMissing, outcome.Status)
	assert.ErrorIs(t, outcome.Err, ErrDestinationMissing)
	assert.False(t, outcome.Delivered())
}

type panickingResolver struct{ onSend bool }

func (r panickingResolver) Resolve(context.Context, string) (Destination, error) {
	if !r.onSend {
		panic("resolver exploded")
	}
	return panickingDestination{}, nil
}

type panickingDestination struct{}

func (panickingDestination) Send(context.Context, string) error { panic("send exploded") }

func TestDeliverRecoversPanics(t *testing.T) {
	for _, r := range []panickingResolver{{onSend: false}, {onSend: true}} {
		d := &Deliverer{Resolver: r, Logger: zerolog.Nop()}
		var outcome Outcome
		require.NotPanics(t, func() {
			outcome = d.Deliver(context.Background(), "x", "hi")
		})
		assert.Equal(t, StatusFailedTransient, outcome.Status)
		assert.ErrorIs(t, outcome.Err, ErrTransient)
	}
}
