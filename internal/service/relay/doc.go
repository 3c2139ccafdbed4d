// Package relay orchestrates the alarm pipeline: every intake event is
// validated, durably logged, rate-limited per source, and fanned out to the
// notification channels when permitted.
//
// Run wires configuration, the audit log, the limiter, the channels, the
// simulated sensor and the HTTP surface into one process with graceful
// shutdown.
package relay
