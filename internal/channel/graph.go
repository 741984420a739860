package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/pkg/logger"
	"github.com/lumoscale/lead-engine/pkg/metrics"
)

const (
	maxSendAttempts = 3
	initialBackoff  = time.Second
)

// GraphMessenger sends messages through a Graph-API-style messaging endpoint.
type GraphMessenger struct {
	http   *resty.Client
	token  string
	logger *logger.Logger
}

// NewGraphMessenger creates a messenger for the given API base URL and access
// token. The token may be overridden per tenant with WithToken.
func NewGraphMessenger(baseURL, accessToken string, log *logger.Logger) *GraphMessenger {
	return &GraphMessenger{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second),
		token:  strings.TrimSpace(accessToken),
		logger: log,
	}
}

// WithToken returns a messenger bound to a tenant-specific access token.
func (m *GraphMessenger) WithToken(accessToken string) *GraphMessenger {
	if strings.TrimSpace(accessToken) == "" {
		return m
	}
	return &GraphMessenger{
		http:   m.http,
		token:  strings.TrimSpace(accessToken),
		logger: m.logger,
	}
}

type graphSendResponse struct {
	MessageID string `json:"message_id"`
	Error     *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send delivers a text message to a customer.
func (m *GraphMessenger) Send(ctx context.Context, customerID, text string) (*SendResult, error) {
	payload := map[string]any{
		"recipient": map[string]string{"id": customerID},
		"message":   map[string]string{"text": text},
	}

	var out graphSendResponse
	err := m.post(ctx, "/me/messages", payload, &out)
	if err != nil {
		metrics.ChannelSendsTotal.WithLabelValues("dm", "error").Inc()
		return nil, &SendError{Channel: "dm", Err: err}
	}
	if out.Error != nil {
		metrics.ChannelSendsTotal.WithLabelValues("dm", "api_error").Inc()
		return nil, &SendError{Channel: "dm", Err: fmt.Errorf("api error %d: %s", out.Error.Code, out.Error.Message)}
	}

	metrics.ChannelSendsTotal.WithLabelValues("dm", "success").Inc()
	return &SendResult{MessageID: out.MessageID}, nil
}

// SendTyping toggles the typing indicator.
func (m *GraphMessenger) SendTyping(ctx context.Context, customerID string, on bool) error {
	action := "typing_on"
	if !on {
		action = "typing_off"
	}
	payload := map[string]any{
		"recipient":     map[string]string{"id": customerID},
		"sender_action": action,
	}
	return m.post(ctx, "/me/messages", payload, nil)
}

// SendReadReceipt marks the latest inbound message as seen.
func (m *GraphMessenger) SendReadReceipt(ctx context.Context, customerID string) error {
	payload := map[string]any{
		"recipient":     map[string]string{"id": customerID},
		"sender_action": "mark_seen",
	}
	return m.post(ctx, "/me/messages", payload, nil)
}

// post issues a JSON POST, retrying connection-level failures with
// exponential backoff. Error statuses fail the call without retry, whatever
// the response body looks like.
func (m *GraphMessenger) post(ctx context.Context, path string, body, out any) error {
	attempt := 0
	op := func() error {
		attempt++
		req := m.http.R().
			SetContext(ctx).
			SetAuthToken(m.token).
			SetBody(body)
		if out != nil {
			req.SetResult(out)
			req.SetError(out)
		}

		resp, err := req.Post(path)
		if err != nil {
			if isConnectionError(err) {
				m.logger.Warn("channel request retry",
					zap.Int("attempt", attempt),
					zap.String("path", path),
					zap.Error(err),
				)
				return err
			}
			return backoff.Permanent(err)
		}
		if resp.IsError() {
			return backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode()))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, maxSendAttempts-1), ctx)
	return backoff.Retry(op, policy)
}

func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
