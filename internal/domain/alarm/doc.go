// Package alarm contains core domain types for the alarm relay.
//
// It defines Event (one alarm notification with local capture time),
// Severity, and the per-source rate Limiter that decides whether an event
// may trigger outbound notifications or must be suppressed.
package alarm
