// Package metrics registers and updates the relay's Prometheus collectors.
//
// Channel delivery results are observable only here and in the logs, never
// through the temperature heartbeat, so operators monitor dispatch health
// separately from the "is it alive" signal.
package metrics
