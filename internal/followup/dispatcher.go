package followup

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/channel"
	"github.com/lumoscale/lead-engine/internal/events"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
	"github.com/lumoscale/lead-engine/pkg/metrics"
)

// MessengerFunc resolves the outbound messenger for a tenant.
type MessengerFunc func(cfg *tenant.Config) channel.Messenger

// Dispatcher sends a drafted followup and records the tier against the
// conversation. The tier is recorded only after the send is confirmed, so a
// failed send is retried on a later sweep; delivery is at-least-once.
type Dispatcher struct {
	store     store.ConversationStore
	tenants   tenant.Provider
	messenger MessengerFunc
	publisher events.Publisher
	logger    *logger.Logger
}

func NewDispatcher(
	convStore store.ConversationStore,
	tenants tenant.Provider,
	messenger MessengerFunc,
	publisher events.Publisher,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:     convStore,
		tenants:   tenants,
		messenger: messenger,
		publisher: publisher,
		logger:    log,
	}
}

// Dispatch sends the draft to the candidate's customer.
func (d *Dispatcher) Dispatch(ctx context.Context, c model.FollowupCandidate, draft model.FollowupDraft) error {
	log := d.logger.WithConversation(c.TenantID, c.CustomerID)

	cfg, err := d.tenants.Load(ctx, c.TenantID)
	if err != nil {
		log.Warn("tenant config load failed during dispatch", zap.Error(err))
	}

	tier := c.FollowupNumber()
	if _, err := d.messenger(cfg).Send(ctx, c.CustomerID, draft.Message); err != nil {
		return err
	}

	if err := d.store.RecordFollowup(ctx, c.TenantID, c.CustomerID, model.Message{
		ID:      uuid.New().String(),
		Content: draft.Message,
	}); err != nil {
		// The message went out but the tier was not recorded; the next sweep
		// may send this tier again.
		log.Error("followup sent but not recorded", zap.Error(err))
		return err
	}

	metrics.FollowupsSentTotal.WithLabelValues(c.TenantID, strconv.Itoa(tier)).Inc()
	d.publisher.Publish(ctx, &model.TurnEvent{
		Type:       model.EventFollowupSent,
		TenantID:   c.TenantID,
		CustomerID: c.CustomerID,
		Tier:       tier,
	})

	log.Info("followup sent",
		zap.Int("tier", tier),
		zap.String("stage", string(draft.Stage)),
	)
	return nil
}
