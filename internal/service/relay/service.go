package relay

import (
	"context"
	"strings"
	"time"

	domain "bacnet-alarm-relay/internal/domain/alarm"
	"bacnet-alarm-relay/internal/logger"
	"bacnet-alarm-relay/internal/metrics"
	"bacnet-alarm-relay/internal/notify"
	repo "bacnet-alarm-relay/internal/repository/alarmlog"
)

// service runs the alarm pipeline: validate, log, decide, dispatch.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// log is the append-only audit trail. Every received event lands here.
	log repo.Repository
	// limiter makes the per-source notify/suppress decision.
	limiter *domain.Limiter
	// dispatcher fans permitted events out to the channels.
	dispatcher *notify.Dispatcher
	// clock supplies capture timestamps and decision time.
	clock domain.Clock
}

// newService wires the pipeline dependencies together.
// A nil clock defaults to time.Now.
func newService(log repo.Repository, limiter *domain.Limiter, dispatcher *notify.Dispatcher, clock domain.Clock) *service {
	if clock == nil {
		clock = time.Now
	}

	return &service{
		log:        log,
		limiter:    limiter,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// HandleAlarm processes one intake tuple through the pipeline.
//
// Every event, valid or malformed, produces exactly one audit record. A
// failed audit append is reported and counted but does not stop dispatch:
// losing a notification is worse than losing the audit row. Malformed
// events are logged as degraded records and rejected with
// domain.ErrMalformedEvent. No error here may terminate the process.
func (s *service) HandleAlarm(ctx context.Context, raw domain.Raw) (domain.Decision, []notify.Result, error) {
	metrics.EventReceived()

	now := s.clock()

	event, err := domain.FromRaw(raw, now)
	if err != nil {
		s.appendDegraded(ctx, raw, now)
		metrics.EventError(metrics.ReasonMalformed)
		logger.WarnKV(ctx, "Dropping malformed alarm event",
			"source_id", raw.SourceID, "error", err)

		return domain.Decision{}, nil, err
	}

	logger.InfoKV(ctx, "Alarm received",
		"source_id", event.SourceID,
		"severity", event.Severity,
		"last_update", event.LastUpdate,
		"message", event.Message)

	// Durable first: the audit row must exist before dispatch is attempted.
	if err := s.log.Append(ctx, repo.RecordFromEvent(event)); err != nil {
		metrics.EventError(metrics.ReasonLogWrite)
		logger.ErrorKV(ctx, "Failed to append alarm record",
			"source_id", event.SourceID, "error", err)
	}

	decision := s.limiter.ShouldNotify(event.SourceID, now)
	metrics.SetLimiterSources(s.limiter.SourceCount())

	if !decision.Notify {
		metrics.EventSuppressed()
		logger.InfoKV(ctx, "Alert suppressed by rate limiting",
			"source_id", event.SourceID,
			"suppressed_count", decision.SuppressedCount)

		return decision, nil, nil
	}

	results := s.dispatcher.Dispatch(ctx, event)
	for _, result := range results {
		metrics.NotificationResult(result.Channel, result.Success())

		if result.Success() {
			logger.InfoKV(ctx, "Notification delivered",
				"channel", result.Channel, "source_id", event.SourceID)
		} else {
			logger.ErrorKV(ctx, "Notification delivery failed",
				"channel", result.Channel, "source_id", event.SourceID, "error", result.Err)
		}
	}

	return decision, results, nil
}

// LimiterSnapshot exposes the per-source limiter state for the ops API.
func (s *service) LimiterSnapshot(_ context.Context) map[string]domain.SourceState {
	return s.limiter.Snapshot()
}

// AlarmLog returns the parsed audit trail in arrival order.
func (s *service) AlarmLog(ctx context.Context) ([]repo.Record, error) {
	return s.log.ReadAll(ctx)
}

// appendDegraded writes a best-effort audit row for unusable intake data.
func (s *service) appendDegraded(ctx context.Context, raw domain.Raw, now time.Time) {
	record := repo.Record{
		Timestamp:  now,
		LastUpdate: raw.LastUpdate,
		Message:    strings.TrimSpace(raw.Message),
	}

	if err := s.log.Append(ctx, record); err != nil {
		metrics.EventError(metrics.ReasonLogWrite)
		logger.ErrorKV(ctx, "Failed to append degraded alarm record", "error", err)
	}
}

// sweepLimiter periodically evicts idle limiter entries so per-source state
// does not grow without bound.
func sweepLimiter(ctx context.Context, limiter *domain.Limiter, clock domain.Clock, every, idleAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.Sweep(clock(), idleAge); removed > 0 {
				logger.DebugKV(ctx, "Swept idle alarm sources", "removed", removed)
			}

			metrics.SetLimiterSources(limiter.SourceCount())
		}
	}
}
