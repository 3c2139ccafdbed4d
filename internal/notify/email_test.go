package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/require"

	"bacnet-alarm-relay/internal/config"
)

var errSMTPDown = errors.New("smtp server down")

// TestEmailChannelSend captures the SMTP transaction and checks that all
// recipients are addressed in one call with the composed payload.
func TestEmailChannelSend(t *testing.T) {
	t.Parallel()

	channel := NewEmailChannel(&config.EmailConfig{
		Host:       "smtp.example.com",
		Port:       587,
		Username:   "sensor@example.com",
		Password:   "app-password",
		From:       "sensor@example.com",
		Recipients: []string{"ops1@example.com", "ops2@example.com"},
	})

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)

	channel.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg

		require.NotNil(t, a)

		return nil
	}

	require.Equal(t, "email", channel.Name())
	require.NoError(t, channel.Send(context.Background(), testEvent(t, "High Temp")))

	require.Equal(t, "smtp.example.com:587", gotAddr)
	require.Equal(t, "sensor@example.com", gotFrom)
	require.Equal(t, []string{"ops1@example.com", "ops2@example.com"}, gotTo)

	body := string(gotMsg)
	require.Contains(t, body, "Subject: BACnet alarm: RM101-TEMP")
	require.Contains(t, body, "To: ops1@example.com, ops2@example.com")
	require.Contains(t, body, "High Temp")
	require.Contains(t, body, "Last update: 2025-11-03T10:00:00Z")
}

// TestEmailChannelNoAuth skips PLAIN auth for servers without credentials.
func TestEmailChannelNoAuth(t *testing.T) {
	t.Parallel()

	channel := NewEmailChannel(&config.EmailConfig{
		Host:       "mail.internal",
		Port:       25,
		From:       "sensor@internal",
		Recipients: []string{"ops@internal"},
	})

	channel.sendMail = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		require.Nil(t, a)

		return nil
	}

	require.NoError(t, channel.Send(context.Background(), testEvent(t, "High Temp")))
}

// TestEmailChannelFailure wraps transport errors instead of retrying.
func TestEmailChannelFailure(t *testing.T) {
	t.Parallel()

	channel := NewEmailChannel(&config.EmailConfig{
		Host:       "smtp.example.com",
		Port:       587,
		From:       "sensor@example.com",
		Recipients: []string{"ops@example.com"},
	})

	calls := 0
	channel.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		calls++

		return errSMTPDown
	}

	err := channel.Send(context.Background(), testEvent(t, "High Temp"))
	require.ErrorIs(t, err, errSMTPDown)
	require.Equal(t, 1, calls)
}
