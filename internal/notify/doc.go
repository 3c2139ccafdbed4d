// Package notify implements the outbound notification channels and the
// dispatcher that fans a permitted alarm out to them.
//
// The closed set of channel variants (SMS gateway, SMTP email) sits behind
// one Channel capability interface; new transports are added as new
// variants, not by subclassing. Each channel owns its delivery
// configuration and failure state.
package notify
