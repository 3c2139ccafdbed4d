package notify

import (
	"context"
	"sync"

	domain "bacnet-alarm-relay/internal/domain/alarm"
)

// Dispatcher fans a permitted event out to the configured channels.
// Channels are attempted independently; one channel's failure never blocks
// or rolls back another channel's attempt.
type Dispatcher struct {
	// channels is the closed set of configured transports.
	channels []Channel
}

// NewDispatcher creates a dispatcher over the provided channels.
func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
	}
}

// ChannelCount returns the number of configured channels.
func (d *Dispatcher) ChannelCount() int {
	return len(d.channels)
}

// Dispatch attempts delivery on every channel concurrently and returns one
// Result per channel, in configuration order. Transport errors are captured
// in the results and never raised out of this call.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) []Result {
	results := make([]Result, len(d.channels))

	var wg sync.WaitGroup

	for i, channel := range d.channels {
		i, channel := i, channel

		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = Result{
				Channel: channel.Name(),
				Err:     channel.Send(ctx, event),
			}
		}()
	}

	wg.Wait()

	return results
}
