package alarm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Severity classifies the condition an alarm source transitioned into.
type Severity string

const (
	// SeverityNormal marks a return to normal operation.
	SeverityNormal Severity = "normal"
	// SeverityAlarm marks an active alarm condition.
	SeverityAlarm Severity = "alarm"
	// SeverityFault marks a fault of the monitored point itself.
	SeverityFault Severity = "fault"
)

// ParseSeverity converts intake input to a Severity.
// An empty string is treated as normal; unknown values are rejected.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return SeverityNormal, true
	case SeverityNormal:
		return SeverityNormal, true
	case SeverityAlarm:
		return SeverityAlarm, true
	case SeverityFault:
		return SeverityFault, true
	default:
		return SeverityNormal, false
	}
}

// ErrMalformedEvent is returned when intake data cannot form a usable event.
var ErrMalformedEvent = errors.New("malformed alarm event")

// Event is a single alarm notification received from the network.
// Values are immutable once constructed.
type Event struct {
	// SourceID identifies the alarm-raising object or point.
	SourceID string
	// LastUpdate is the timestamp supplied by the remote source.
	// It is untrusted input and may be out of order or repeated.
	LastUpdate time.Time
	// Message is the human-readable alarm description.
	Message string
	// Severity is the reported condition, defaulting to normal.
	Severity Severity
	// ReceivedAt is the local wall-clock capture time.
	ReceivedAt time.Time
}

// Raw is the unvalidated tuple delivered by the intake boundary,
// one per alarm transition observed on the network.
type Raw struct {
	// SourceID identifies the alarm-raising object or point.
	SourceID string
	// LastUpdate is the timestamp supplied by the remote source.
	LastUpdate time.Time
	// Message is the human-readable alarm description.
	Message string
	// Severity is the reported condition as free text; empty means normal.
	Severity string
}

// FromRaw validates intake data into an Event captured at receivedAt.
// Unknown severity values are malformed input.
func FromRaw(raw Raw, receivedAt time.Time) (Event, error) {
	severity, ok := ParseSeverity(raw.Severity)
	if !ok {
		return Event{}, fmt.Errorf("%w: unknown severity %q", ErrMalformedEvent, raw.Severity)
	}

	return NewEvent(raw.SourceID, raw.LastUpdate, raw.Message, severity, receivedAt)
}

// NewEvent builds a validated Event from intake data.
// SourceID and Message must be non-empty after trimming, otherwise the
// error wraps ErrMalformedEvent and the event must not propagate further.
func NewEvent(sourceID string, lastUpdate time.Time, message string, severity Severity, receivedAt time.Time) (Event, error) {
	sourceID = strings.TrimSpace(sourceID)
	message = strings.TrimSpace(message)

	if sourceID == "" {
		return Event{}, fmt.Errorf("%w: source id is empty", ErrMalformedEvent)
	}

	if message == "" {
		return Event{}, fmt.Errorf("%w: message text is empty", ErrMalformedEvent)
	}

	if severity == "" {
		severity = SeverityNormal
	}

	return Event{
		SourceID:   sourceID,
		LastUpdate: lastUpdate,
		Message:    message,
		Severity:   severity,
		ReceivedAt: receivedAt,
	}, nil
}
