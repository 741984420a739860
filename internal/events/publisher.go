package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/model"
)

const (
	// StreamName is the name of the lead events stream.
	StreamName = "LEAD_EVENTS"

	// SubjectPrefix is the prefix for all event subjects.
	SubjectPrefix = "lead"
)

// Publisher is the event handoff used by the pipeline and dispatcher.
type Publisher interface {
	Publish(ctx context.Context, event *model.TurnEvent)
}

// StreamPublisher publishes events to JetStream.
type StreamPublisher struct {
	client *Client
}

// NewStreamPublisher creates a publisher over an established client.
func NewStreamPublisher(client *Client) *StreamPublisher {
	return &StreamPublisher{client: client}
}

// EnsureStream ensures the lead events stream exists.
func (p *StreamPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Turn and followup lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// EventSubject returns the subject for an event.
func EventSubject(event *model.TurnEvent) string {
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, event.TenantID, event.CustomerID, event.Type)
}

// Publish publishes one event; failures are logged and swallowed.
func (p *StreamPublisher) Publish(ctx context.Context, event *model.TurnEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.client.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	if _, err := p.client.JetStream().Publish(ctx, EventSubject(event), data); err != nil {
		p.client.logger.Warn("event publish failed",
			zap.String("type", event.Type),
			zap.String("tenant_id", event.TenantID),
			zap.Error(err),
		)
	}
}

// NopPublisher discards events; used in tests and when NATS is not
// configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(ctx context.Context, event *model.TurnEvent) {}
