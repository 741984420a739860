// Package followup implements the inactivity followup loop: scan for eligible
// conversations, generate a re-engagement message per candidate, dispatch it
// and record the tier.
package followup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

// Policy holds the followup timing rules.
type Policy struct {
	// FirstAfter is the inactivity threshold for the first followup.
	FirstAfter time.Duration

	// SecondAfter is the minimum gap after the previous followup before the
	// next tier may be sent.
	SecondAfter time.Duration

	// Max caps followups per conversation for its lifetime.
	Max int
}

// Scanner finds conversations eligible for a followup.
type Scanner struct {
	store  store.ConversationStore
	policy Policy
	logger *logger.Logger
}

func NewScanner(convStore store.ConversationStore, policy Policy, log *logger.Logger) *Scanner {
	return &Scanner{store: convStore, policy: policy, logger: log}
}

// Scan returns one candidate per eligible conversation for the tenant.
// Corrupt or unreadable records are skipped, never fatal for the sweep.
func (s *Scanner) Scan(ctx context.Context, tenantID string, now time.Time) ([]model.FollowupCandidate, error) {
	convs, err := s.store.ListConversations(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var candidates []model.FollowupCandidate
	for _, conv := range convs {
		if !s.eligible(conv, now) {
			continue
		}
		meta, _ := s.store.GetMetadata(ctx, tenantID, conv.CustomerID)
		if meta.AgentBlocked {
			continue
		}
		candidates = append(candidates, model.FollowupCandidate{
			TenantID:      tenantID,
			CustomerID:    conv.CustomerID,
			Messages:      conv.Messages,
			HoursInactive: now.Sub(conv.LastInteraction).Hours(),
			FollowupCount: conv.FollowupCount,
			Summary:       conv.Summary,
		})
	}

	if len(candidates) > 0 {
		s.logger.Info("followup scan found candidates",
			zap.String("tenant_id", tenantID),
			zap.Int("count", len(candidates)),
		)
	}
	return candidates, nil
}

// eligible applies the timing rules:
//   - the agent sent the last message (the ball is in the customer's court)
//   - inactive for at least the first-tier threshold
//   - under the lifetime followup cap
//   - second and later tiers wait out the inter-followup gap
func (s *Scanner) eligible(conv *model.Conversation, now time.Time) bool {
	if conv == nil || len(conv.Messages) == 0 {
		return false
	}
	last := conv.LastMessage()
	if last == nil || last.Role != model.RoleAgent {
		return false
	}
	if now.Sub(conv.LastInteraction) < s.policy.FirstAfter {
		return false
	}
	if conv.FollowupCount >= s.policy.Max {
		return false
	}
	if conv.FollowupCount > 0 {
		if conv.LastFollowupAt == nil {
			return false
		}
		if now.Sub(*conv.LastFollowupAt) < s.policy.SecondAfter {
			return false
		}
	}
	return true
}
