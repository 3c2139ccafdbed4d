// Package alarmlog implements the durable audit trail of received alarms.
//
// The FileRepository appends one CSV row per event (header: Timestamp,
// LastUpdate, Message) regardless of whether the event was relayed or
// suppressed, and exposes a Repository interface that the relay service
// depends on.
package alarmlog
