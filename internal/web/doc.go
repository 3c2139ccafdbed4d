// Package web implements the HTTP intake and ops API of the relay.
//
// It adapts wire DTOs to domain types and exposes the alarm intake endpoint,
// the audit log and limiter views, the temperature heartbeat, and the
// Prometheus metrics handler. Business logic stays behind the Service
// interface.
package web
