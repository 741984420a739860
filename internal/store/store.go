// Package store provides the durable conversation and customer metadata store.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lumoscale/lead-engine/internal/model"
)

// Retention windows. Every write refreshes the record's TTL.
const (
	ConversationTTL = 90 * 24 * time.Hour
	MetadataTTL     = 365 * 24 * time.Hour
)

// StoreError wraps a failed store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ConversationStore is the durable per-(tenant, customer) state contract.
//
// Read operations degrade to empty defaults on backend failure; write
// operations surface a *StoreError. All operations are scoped by tenant and
// customer and rely only on single-key read-modify-write atomicity.
type ConversationStore interface {
	// AppendMessage appends to the message log, updating last_interaction
	// and message_count. The conversation record is created on first append.
	AppendMessage(ctx context.Context, tenantID, customerID string, msg model.Message) error

	// GetConversation returns the full record, or nil if none exists.
	GetConversation(ctx context.Context, tenantID, customerID string) (*model.Conversation, error)

	// GetHistory returns the last limit messages in insertion order. A
	// missing conversation yields an empty slice, not an error.
	GetHistory(ctx context.Context, tenantID, customerID string, limit int) ([]model.Message, error)

	// ClassifyUser derives new/returning/inactive from stored state.
	ClassifyUser(ctx context.Context, tenantID, customerID string) model.UserType

	// GetMetadata returns the customer profile, zero-valued if absent.
	GetMetadata(ctx context.Context, tenantID, customerID string) (model.CustomerMetadata, error)

	// MergeMetadata applies a partial update; the record is created on
	// first write and unsupplied fields keep their prior values.
	MergeMetadata(ctx context.Context, tenantID, customerID string, upd model.MetadataUpdate) error

	// UpdateSummary sets the rolling conversation summary. A missing
	// conversation is a no-op.
	UpdateSummary(ctx context.Context, tenantID, customerID, summary string, painPoints, topics []string) error

	// RecordFollowup appends a followup-flagged agent message and, in the
	// same write, increments followup_count and sets last_followup_at.
	RecordFollowup(ctx context.Context, tenantID, customerID string, msg model.Message) error

	// ListConversations returns all conversation records for a tenant.
	// Individually corrupt records are skipped, never fatal for the scan.
	ListConversations(ctx context.Context, tenantID string) ([]*model.Conversation, error)
}

// Classify derives the user type from a conversation record.
func Classify(conv *model.Conversation, now time.Time) model.UserType {
	if conv == nil || len(conv.Messages) == 0 {
		return model.UserTypeNew
	}
	if now.Sub(conv.LastInteraction) > model.InactiveAfter {
		return model.UserTypeInactive
	}
	return model.UserTypeReturning
}

func conversationKey(tenantID, customerID string) string {
	return fmt.Sprintf("conversation:%s:%s", tenantID, customerID)
}

func customerKey(tenantID, customerID string) string {
	return fmt.Sprintf("customer:%s:%s", tenantID, customerID)
}
