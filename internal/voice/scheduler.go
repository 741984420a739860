package voice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

// Tiers maps lead temperature to followup timing and kind.
type Tiers struct {
	// WarmDelay is how long after call end a warm lead is contacted.
	WarmDelay time.Duration

	// ColdDelay is how long after call end a cold lead is contacted.
	ColdDelay time.Duration
}

// Scheduler enqueues post-call followups according to lead temperature:
// warm leads get a call plus SMS after a short delay, cold leads an SMS only
// after a long one. Hot leads booked on the call need no followup.
type Scheduler struct {
	queue  Queue
	tiers  Tiers
	logger *logger.Logger
}

func NewScheduler(queue Queue, tiers Tiers, log *logger.Logger) *Scheduler {
	return &Scheduler{queue: queue, tiers: tiers, logger: log}
}

// Schedule enqueues the followup for a qualified lead. Returns the scheduled
// entry, or nil when the lead type needs none.
func (s *Scheduler) Schedule(ctx context.Context, tenantID, callID string, leadType model.LeadStatus, lead model.VoiceLead) (*model.ScheduledFollowup, error) {
	var (
		kind  model.FollowupKind
		delay time.Duration
	)
	switch leadType {
	case model.LeadWarm:
		kind = model.FollowupCallAndSMS
		delay = s.tiers.WarmDelay
	case model.LeadCold:
		kind = model.FollowupSMSOnly
		delay = s.tiers.ColdDelay
	default:
		s.logger.Info("no followup scheduled",
			zap.String("tenant_id", tenantID),
			zap.String("call_id", callID),
			zap.String("lead_type", string(leadType)),
		)
		return nil, nil
	}

	now := time.Now().UTC()
	f := &model.ScheduledFollowup{
		TenantID:  tenantID,
		CallID:    callID,
		LeadType:  leadType,
		Kind:      kind,
		DueAt:     now.Add(delay),
		Status:    model.ScheduledPending,
		Lead:      lead,
		CreatedAt: now,
	}
	if err := s.queue.Add(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("voice followup scheduled",
		zap.String("tenant_id", tenantID),
		zap.String("call_id", callID),
		zap.String("lead_type", string(leadType)),
		zap.String("kind", string(kind)),
		zap.Time("due_at", f.DueAt),
	)
	return f, nil
}
