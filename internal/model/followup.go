package model

import (
	"time"
)

// Stage is the derived conversational stage used to tailor followup tone.
type Stage string

const (
	StageGreeting    Stage = "greeting"
	StageInquiry     Stage = "inquiry"
	StagePricing     Stage = "pricing"
	StageBooking     Stage = "booking"
	StagePostBooking Stage = "post_booking"
	StageUnclear     Stage = "unclear"
)

// FollowupCandidate is produced by the eligibility scanner and consumed by the
// generator and dispatcher within the same sweep.
type FollowupCandidate struct {
	TenantID      string
	CustomerID    string
	Messages      []Message
	HoursInactive float64
	FollowupCount int
	Summary       string
}

// FollowupNumber is the tier about to be sent (1-based).
func (c FollowupCandidate) FollowupNumber() int {
	return c.FollowupCount + 1
}

// FollowupDraft is the generator's decision for one candidate.
type FollowupDraft struct {
	Message    string `json:"followup_message"`
	ShouldSend bool   `json:"should_send"`
	Reasoning  string `json:"reasoning"`
	Stage      Stage  `json:"stage,omitempty"`
}

// TurnEvent is published to the event stream after a completed turn or a
// dispatched followup. Consumers (analytics, reflection jobs) are outside
// this process; publication is fire-and-forget.
type TurnEvent struct {
	Type       string     `json:"type"`
	TenantID   string     `json:"tenant_id"`
	CustomerID string     `json:"customer_id"`
	Intent     string     `json:"intent,omitempty"`
	LeadScore  int        `json:"lead_score,omitempty"`
	LeadStatus LeadStatus `json:"lead_status,omitempty"`
	Tier       int        `json:"tier,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

const (
	EventTurnCompleted = "turn.completed"
	EventFollowupSent  = "followup.sent"
)
