// Package model defines data structures for the lead engine.
package model

import (
	"time"
)

// Role represents the sender of a conversation message.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// Message is a single entry in a conversation log.
type Message struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsFollowup bool      `json:"is_followup,omitempty"`
}

// Conversation is the durable per-(tenant, customer) record. The message
// sequence is append-only; LastInteraction always tracks the timestamp of the
// most recently appended message regardless of role.
type Conversation struct {
	TenantID        string     `json:"tenant_id"`
	CustomerID      string     `json:"customer_id"`
	Messages        []Message  `json:"messages"`
	MessageCount    int        `json:"message_count"`
	CreatedAt       time.Time  `json:"created_at"`
	LastInteraction time.Time  `json:"last_interaction"`
	FollowupCount   int        `json:"followup_count"`
	LastFollowupAt  *time.Time `json:"last_followup_at,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	PainPoints      []string   `json:"pain_points,omitempty"`
	Topics          []string   `json:"topics,omitempty"`
}

// LastMessage returns the most recent message, or nil for an empty log.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// ConversationSummary is the listing projection used by the followup scanner
// and the conversations endpoint.
type ConversationSummary struct {
	CustomerID      string    `json:"customer_id"`
	MessageCount    int       `json:"message_count"`
	LastInteraction time.Time `json:"last_interaction"`
	Summary         string    `json:"summary,omitempty"`
}

// UserType classifies a customer by interaction recency.
type UserType string

const (
	UserTypeNew       UserType = "new"
	UserTypeReturning UserType = "returning"
	UserTypeInactive  UserType = "inactive"
)

// InactiveAfter is the window beyond which a returning customer is
// reclassified as inactive.
const InactiveAfter = 7 * 24 * time.Hour
