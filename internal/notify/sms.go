package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bacnet-alarm-relay/internal/config"
	domain "bacnet-alarm-relay/internal/domain/alarm"
)

const (
	// smsSendPath is the gateway endpoint for outbound messages
	// (Teltonika-style router API).
	smsSendPath = "/api/sms/send"

	// smsMaxRunes is the single-message length limit imposed by the gateway.
	smsMaxRunes = 160
)

// smsPayload is the JSON body the gateway expects.
type smsPayload struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

// SMSChannel delivers alarms through a router-hosted SMS gateway,
// one HTTP call per recipient.
type SMSChannel struct {
	// gatewayURL is the base URL of the gateway.
	gatewayURL string
	// username and password authenticate the gateway call (basic auth).
	username string
	password string
	// recipients are the destination phone numbers.
	recipients []string
	// client carries the transport timeout; a timeout is a delivery failure.
	client *http.Client
}

// NewSMSChannel builds the channel from validated configuration.
func NewSMSChannel(cfg *config.SMSConfig) *SMSChannel {
	return &SMSChannel{
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		recipients: cfg.Recipients,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name implements Channel.
func (c *SMSChannel) Name() string {
	return "sms"
}

// Send delivers the event text to every configured recipient. Recipients
// are attempted independently so one rejected number cannot starve the
// rest; failures are joined into the returned error. There is no retry.
func (c *SMSChannel) Send(ctx context.Context, event domain.Event) error {
	message := smsText(event)

	var errs []error

	for _, number := range c.recipients {
		if err := c.sendOne(ctx, number, message); err != nil {
			errs = append(errs, fmt.Errorf("send sms to %s: %w", number, err))
		}
	}

	return errors.Join(errs...)
}

// sendOne posts one message to the gateway.
func (c *SMSChannel) sendOne(ctx context.Context, number, message string) error {
	body, err := json.Marshal(smsPayload{
		Number:  number,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	request, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.gatewayURL+smsSendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")

	if c.username != "" {
		request.SetBasicAuth(c.username, c.password)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("call gateway: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 256))

		return fmt.Errorf("gateway returned %d: %s", response.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}

// smsText composes the short message from the source timestamp and the alarm
// text, clipped to the gateway length limit.
func smsText(event domain.Event) string {
	text := event.Message
	if !event.LastUpdate.IsZero() {
		text = event.LastUpdate.Format(time.RFC3339) + " " + text
	}

	runes := []rune(text)
	if len(runes) > smsMaxRunes {
		return string(runes[:smsMaxRunes])
	}

	return text
}
