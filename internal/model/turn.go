package model

import (
	"time"
)

// Source identifies where an inbound message originated.
type Source string

const (
	SourceDM    Source = "dm"
	SourceStory Source = "story"
	SourceAd    Source = "ad"
)

// InboundMessage is one inbound event as delivered by a channel adapter.
type InboundMessage struct {
	TenantID     string `json:"tenant_id"`
	CustomerID   string `json:"customer_id"`
	Text         string `json:"text"`
	Source       Source `json:"source"`
	Username     string `json:"username,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

// TurnContext is the ephemeral state threaded through the pipeline stages for
// one inbound message. Every field a stage may read or write is declared here;
// the struct is constructed fresh per turn and never persisted as-is.
type TurnContext struct {
	// Identity
	TenantID     string
	CustomerID   string
	Username     string
	CustomerName string

	// Inbound
	Text   string
	Source Source

	// Context-load outputs
	UserType UserType
	History  []Message
	Metadata CustomerMetadata
	Summary  string

	// Reply-generate outputs
	Intent       string
	ResponseText string
	ShouldBook   bool
	LeadScore    int
	LeadStatus   LeadStatus

	// Side-effect outputs
	ActionsTaken []string

	// Bookkeeping
	StartedAt time.Time
	Err       error
}

// TurnResult is returned to the inbound-message handler after the pipeline
// finishes (or short-circuits).
type TurnResult struct {
	CustomerID   string     `json:"customer_id"`
	UserType     UserType   `json:"user_type"`
	ResponseText string     `json:"response,omitempty"`
	Intent       string     `json:"intent,omitempty"`
	LeadScore    int        `json:"lead_score,omitempty"`
	LeadStatus   LeadStatus `json:"lead_status,omitempty"`
	ActionsTaken []string   `json:"actions"`
	Blocked      bool       `json:"blocked,omitempty"`
	Errored      bool       `json:"errored,omitempty"`
}
