package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"bacnet-alarm-relay/internal/config"
	domain "bacnet-alarm-relay/internal/domain/alarm"
)

// SendMailFunc matches smtp.SendMail and is injectable for tests.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel delivers alarms over SMTP, all recipients in one transaction.
type EmailChannel struct {
	// addr is the host:port of the SMTP server.
	addr string
	// host is kept separately for PLAIN auth.
	host string
	// username and password are the authenticated sender credentials.
	username string
	password string
	// from is the envelope sender address.
	from string
	// recipients are the destination addresses.
	recipients []string
	// sendMail performs the SMTP transaction.
	sendMail SendMailFunc
}

// NewEmailChannel builds the channel from validated configuration.
func NewEmailChannel(cfg *config.EmailConfig) *EmailChannel {
	return &EmailChannel{
		addr:       net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:       cfg.Host,
		username:   cfg.Username,
		password:   cfg.Password,
		from:       cfg.From,
		recipients: cfg.Recipients,
		sendMail:   smtp.SendMail,
	}
}

// Name implements Channel.
func (c *EmailChannel) Name() string {
	return "email"
}

// Send delivers the event to all configured recipients in one SMTP call.
func (c *EmailChannel) Send(_ context.Context, event domain.Event) error {
	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	if err := c.sendMail(c.addr, auth, c.from, c.recipients, c.message(event)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

// message renders the RFC 5322 payload for the event.
func (c *EmailChannel) message(event domain.Event) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", c.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(c.recipients, ", "))
	fmt.Fprintf(&b, "Subject: BACnet alarm: %s\r\n", event.SourceID)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Source: %s\r\n", event.SourceID)
	fmt.Fprintf(&b, "Severity: %s\r\n", event.Severity)

	if !event.LastUpdate.IsZero() {
		fmt.Fprintf(&b, "Last update: %s\r\n", event.LastUpdate.Format(time.RFC3339))
	}

	fmt.Fprintf(&b, "Received: %s\r\n", event.ReceivedAt.Format(time.RFC3339))
	b.WriteString("\r\n")
	b.WriteString(event.Message)
	b.WriteString("\r\n")

	return []byte(b.String())
}
