package alarm

import (
	"sync"
	"time"
)

// Clock supplies the pipeline's notion of current time.
// Injecting it keeps rate-limit decisions deterministic in tests.
type Clock func() time.Time

// Decision is the outcome of a rate-limit check for one event.
type Decision struct {
	// Notify is true when the event may be dispatched to channels.
	Notify bool
	// SuppressedCount is the number of events suppressed for the source
	// since its last notification, including the current one when suppressed.
	SuppressedCount int
}

// SourceState is a read-only view of one source's limiter entry.
type SourceState struct {
	// LastNotifiedAt is when the source last produced a notification.
	LastNotifiedAt time.Time
	// SuppressedCount is the number of events suppressed since then.
	SuppressedCount int
}

// sourceState tracks notification timing for one alarm source.
type sourceState struct {
	lastNotifiedAt  time.Time
	suppressedCount int
}

// Limiter suppresses repeat notifications for the same source within a
// configured interval. Entries are created lazily on first event and live
// for the process lifetime unless swept.
type Limiter struct {
	// interval is the minimum time between notifications per source.
	interval time.Duration
	// mu serializes the read-decide-update step across concurrent events.
	mu sync.Mutex
	// sources maps a source id to its notification state.
	sources map[string]*sourceState
}

// NewLimiter creates a limiter with the given per-source alert interval.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		sources:  make(map[string]*sourceState),
	}
}

// Interval returns the configured per-source alert interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// ShouldNotify decides whether an event for the source may trigger outbound
// notifications at the given instant. The first event for a source, or an
// event arriving at least one interval after the last notification
// (boundary inclusive), notifies and resets the suppression counter.
// Everything else is suppressed. The decision and the state update are one
// atomic step so duplicate deliveries cannot both notify.
func (l *Limiter) ShouldNotify(sourceID string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.sources[sourceID]
	if !ok {
		l.sources[sourceID] = &sourceState{lastNotifiedAt: now}

		return Decision{Notify: true}
	}

	if now.Sub(state.lastNotifiedAt) >= l.interval {
		state.lastNotifiedAt = now
		state.suppressedCount = 0

		return Decision{Notify: true}
	}

	state.suppressedCount++

	return Decision{Notify: false, SuppressedCount: state.suppressedCount}
}

// Sweep drops entries whose last notification is older than olderThan,
// returning the number removed. Callers must pass olderThan >= interval;
// smaller values are raised to the interval so a sweep can never turn a
// would-be suppression into a notification.
func (l *Limiter) Sweep(now time.Time, olderThan time.Duration) int {
	if olderThan < l.interval {
		olderThan = l.interval
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0

	for sourceID, state := range l.sources {
		if now.Sub(state.lastNotifiedAt) >= olderThan {
			delete(l.sources, sourceID)

			removed++
		}
	}

	return removed
}

// SourceCount returns the number of tracked sources.
func (l *Limiter) SourceCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.sources)
}

// Snapshot returns a copy of the per-source state for observability.
func (l *Limiter) Snapshot() map[string]SourceState {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make(map[string]SourceState, len(l.sources))
	for sourceID, state := range l.sources {
		result[sourceID] = SourceState{
			LastNotifiedAt:  state.lastNotifiedAt,
			SuppressedCount: state.suppressedCount,
		}
	}

	return result
}
