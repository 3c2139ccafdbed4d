package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	domain "bacnet-alarm-relay/internal/domain/alarm"
)

var errGatewayDown = errors.New("gateway down")

// fakeChannel counts deliveries and fails on demand.
type fakeChannel struct {
	// name identifies the channel in results.
	name string
	// err is returned from every Send when set.
	err error
	// calls counts Send invocations.
	calls atomic.Int64
}

// Name implements Channel.
func (c *fakeChannel) Name() string {
	return c.name
}

// Send implements Channel.
func (c *fakeChannel) Send(context.Context, domain.Event) error {
	c.calls.Add(1)

	return c.err
}

// TestDispatchFailureIsolation verifies that a failing channel neither
// blocks nor rolls back a healthy one, and both outcomes are reported.
func TestDispatchFailureIsolation(t *testing.T) {
	t.Parallel()

	var (
		sms        = &fakeChannel{name: "sms", err: errGatewayDown}
		email      = &fakeChannel{name: "email"}
		dispatcher = NewDispatcher(sms, email)
	)

	results := dispatcher.Dispatch(context.Background(), testEvent(t, "High Temp"))
	require.Len(t, results, 2)

	// Results keep configuration order.
	require.Equal(t, "sms", results[0].Channel)
	require.False(t, results[0].Success())
	require.ErrorIs(t, results[0].Err, errGatewayDown)

	require.Equal(t, "email", results[1].Channel)
	require.True(t, results[1].Success())

	// Exactly one attempt per channel per event.
	require.EqualValues(t, 1, sms.calls.Load())
	require.EqualValues(t, 1, email.calls.Load())
}

// TestDispatchNoChannels returns an empty result set without error.
func TestDispatchNoChannels(t *testing.T) {
	t.Parallel()

	dispatcher := NewDispatcher()
	require.Zero(t, dispatcher.ChannelCount())
	require.Empty(t, dispatcher.Dispatch(context.Background(), testEvent(t, "High Temp")))
}
