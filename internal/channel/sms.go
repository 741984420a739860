package channel

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/pkg/logger"
	"github.com/lumoscale/lead-engine/pkg/metrics"
)

// TwilioChannel sends voice-side followup SMS through the Twilio REST API and
// triggers outbound calls through the voice agent's call endpoint.
type TwilioChannel struct {
	http       *resty.Client
	accountSID string
	fromNumber string
	callURL    string
	logger     *logger.Logger
}

// NewTwilioChannel creates a voice channel client. An empty accountSID
// disables SMS sends (logged, not fatal) so the poller keeps draining.
func NewTwilioChannel(baseURL, accountSID, authToken, fromNumber, callURL string, log *logger.Logger) *TwilioChannel {
	return &TwilioChannel{
		http: resty.New().
			SetBaseURL(baseURL).
			SetBasicAuth(accountSID, authToken).
			SetTimeout(15 * time.Second),
		accountSID: accountSID,
		fromNumber: fromNumber,
		callURL:    callURL,
		logger:     log,
	}
}

// SendSMS sends a templated SMS to a phone number.
func (c *TwilioChannel) SendSMS(ctx context.Context, phone, text string) error {
	if c.accountSID == "" {
		c.logger.Warn("sms not sent, channel not configured", zap.String("phone", phone))
		return &SendError{Channel: "sms", Err: fmt.Errorf("sms channel not configured")}
	}

	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", c.fromNumber)
	form.Set("Body", text)

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(fmt.Sprintf("/Accounts/%s/Messages.json", c.accountSID))
	if err != nil {
		metrics.ChannelSendsTotal.WithLabelValues("sms", "error").Inc()
		return &SendError{Channel: "sms", Err: err}
	}
	if resp.IsError() {
		metrics.ChannelSendsTotal.WithLabelValues("sms", "api_error").Inc()
		return &SendError{Channel: "sms", Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())}
	}

	metrics.ChannelSendsTotal.WithLabelValues("sms", "success").Inc()
	c.logger.Info("sms sent", zap.String("phone", phone))
	return nil
}

// TriggerCall initiates an outbound call through the voice agent.
func (c *TwilioChannel) TriggerCall(ctx context.Context, phone string) error {
	resp, err := resty.New().
		SetTimeout(10 * time.Second).
		R().
		SetContext(ctx).
		SetBody(map[string]string{"phone": phone}).
		Post(c.callURL)
	if err != nil {
		return &SendError{Channel: "call", Err: err}
	}
	if resp.IsError() {
		return &SendError{Channel: "call", Err: fmt.Errorf("unexpected status %d", resp.StatusCode())}
	}

	c.logger.Info("outbound call initiated", zap.String("phone", phone))
	return nil
}
