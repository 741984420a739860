package model

import (
	"time"
)

// FollowupKind is the action a voice followup performs when due.
type FollowupKind string

const (
	FollowupSMSOnly    FollowupKind = "sms_only"
	FollowupCallAndSMS FollowupKind = "call_and_sms"
)

// ScheduledStatus is the lifecycle of a scheduled voice followup.
type ScheduledStatus string

const (
	ScheduledPending   ScheduledStatus = "pending"
	ScheduledCompleted ScheduledStatus = "completed"
)

// VoiceLead is the qualification payload recorded at call end.
type VoiceLead struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email,omitempty"`
	Industry        string `json:"industry,omitempty"`
	ServiceInterest string `json:"service_interest,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// ScheduledFollowup is one due-time index entry on the voice side, identified
// by (tenant_id, call_id). Pending entries execute at most once; the status
// transition is the dedup guard.
type ScheduledFollowup struct {
	TenantID  string          `json:"tenant_id"`
	CallID    string          `json:"call_id"`
	LeadType  LeadStatus      `json:"lead_type"`
	Kind      FollowupKind    `json:"followup_type"`
	DueAt     time.Time       `json:"execute_at"`
	Status    ScheduledStatus `json:"status"`
	Lead      VoiceLead       `json:"lead_data"`
	CreatedAt time.Time       `json:"created_at"`
}
