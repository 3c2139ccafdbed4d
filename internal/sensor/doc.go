// Package sensor simulates the temperature point of the virtual device.
//
// The value is observability-only: it is published on a fixed heartbeat to
// the ops API and the metrics gauge, and has no interaction with the alarm
// pipeline's state.
package sensor
