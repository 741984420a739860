// Package channel provides outbound messaging transports.
package channel

import (
	"context"
	"fmt"
)

// SendError wraps a failed outbound send.
type SendError struct {
	Channel string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("channel %s: send failed: %v", e.Channel, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// SendResult carries the platform message ID of a confirmed send.
type SendResult struct {
	MessageID string `json:"message_id"`
}

// Messenger delivers agent replies back to the customer.
//
// Implementations retry connection-level failures with exponential backoff up
// to a small fixed attempt count; application-level error responses are not
// retried.
type Messenger interface {
	// Send delivers a text message to a customer.
	Send(ctx context.Context, customerID, text string) (*SendResult, error)

	// SendTyping toggles the typing indicator. Best-effort.
	SendTyping(ctx context.Context, customerID string, on bool) error

	// SendReadReceipt marks the latest inbound message as seen. Best-effort.
	SendReadReceipt(ctx context.Context, customerID string) error
}

// VoiceChannel delivers voice-side followup actions.
type VoiceChannel interface {
	// SendSMS sends a templated SMS to a phone number in E.164 format.
	SendSMS(ctx context.Context, phone, text string) error

	// TriggerCall initiates an outbound call to the phone number.
	TriggerCall(ctx context.Context, phone string) error
}
