package notify

import (
	"context"

	domain "bacnet-alarm-relay/internal/domain/alarm"
)

// Channel is one notification transport with its own recipients and failure
// mode. Implementations must not share mutable state with each other.
type Channel interface {
	// Name identifies the channel in results, logs and metrics.
	Name() string
	// Send delivers the event to all configured recipients.
	// It makes at most one delivery attempt and returns a transport error
	// instead of retrying.
	Send(ctx context.Context, event domain.Event) error
}

// Result records the outcome of one delivery attempt on one channel.
type Result struct {
	// Channel is the name of the channel that was attempted.
	Channel string
	// Err is the delivery failure, nil on success.
	Err error
}

// Success reports whether the delivery attempt succeeded.
func (r Result) Success() bool {
	return r.Err == nil
}
