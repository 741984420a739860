package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lumoscale/lead-engine/internal/model"
)

// MemoryStore is an in-memory ConversationStore. Used in tests and as a
// development fallback when Redis is not configured.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	metadata      map[string]*model.CustomerMetadata
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*model.Conversation),
		metadata:      make(map[string]*model.CustomerMetadata),
	}
}

// AppendMessage appends to the conversation log.
func (s *MemoryStore) AppendMessage(ctx context.Context, tenantID, customerID string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := conversationKey(tenantID, customerID)
	conv, ok := s.conversations[key]
	if !ok {
		conv = &model.Conversation{
			TenantID:   tenantID,
			CustomerID: customerID,
			CreatedAt:  time.Now().UTC(),
		}
		s.conversations[key] = conv
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	conv.Messages = append(conv.Messages, msg)
	conv.MessageCount = len(conv.Messages)
	conv.LastInteraction = msg.Timestamp
	return nil
}

// GetConversation returns a copy of the record, or nil if none exists.
func (s *MemoryStore) GetConversation(ctx context.Context, tenantID, customerID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationKey(tenantID, customerID)]
	if !ok {
		return nil, nil
	}
	cp := *conv
	cp.Messages = append([]model.Message(nil), conv.Messages...)
	return &cp, nil
}

// GetHistory returns the last limit messages in insertion order.
func (s *MemoryStore) GetHistory(ctx context.Context, tenantID, customerID string, limit int) ([]model.Message, error) {
	conv, _ := s.GetConversation(ctx, tenantID, customerID)
	if conv == nil || len(conv.Messages) == 0 {
		return nil, nil
	}
	msgs := conv.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// ClassifyUser derives new/returning/inactive from stored state.
func (s *MemoryStore) ClassifyUser(ctx context.Context, tenantID, customerID string) model.UserType {
	conv, _ := s.GetConversation(ctx, tenantID, customerID)
	return Classify(conv, time.Now().UTC())
}

// GetMetadata returns the customer profile, zero-valued if absent.
func (s *MemoryStore) GetMetadata(ctx context.Context, tenantID, customerID string) (model.CustomerMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if meta, ok := s.metadata[customerKey(tenantID, customerID)]; ok {
		return *meta, nil
	}
	return model.CustomerMetadata{}, nil
}

// MergeMetadata applies a partial update.
func (s *MemoryStore) MergeMetadata(ctx context.Context, tenantID, customerID string, upd model.MetadataUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := customerKey(tenantID, customerID)
	meta, ok := s.metadata[key]
	if !ok {
		meta = &model.CustomerMetadata{}
		s.metadata[key] = meta
	}
	upd.Apply(meta)
	meta.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateSummary sets the rolling conversation summary.
func (s *MemoryStore) UpdateSummary(ctx context.Context, tenantID, customerID, summary string, painPoints, topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationKey(tenantID, customerID)]
	if !ok {
		return nil
	}
	conv.Summary = summary
	if len(painPoints) > 0 {
		conv.PainPoints = painPoints
	}
	if len(topics) > 0 {
		conv.Topics = topics
	}
	return nil
}

// RecordFollowup appends a followup message and bumps the counter.
func (s *MemoryStore) RecordFollowup(ctx context.Context, tenantID, customerID string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationKey(tenantID, customerID)]
	if !ok {
		return &StoreError{Op: "record_followup", Err: errors.New("conversation not found")}
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msg.Role = model.RoleAgent
	msg.IsFollowup = true

	conv.Messages = append(conv.Messages, msg)
	conv.MessageCount = len(conv.Messages)
	conv.LastInteraction = msg.Timestamp
	conv.FollowupCount++
	now := msg.Timestamp
	conv.LastFollowupAt = &now
	return nil
}

// ListConversations returns all conversation records for a tenant.
func (s *MemoryStore) ListConversations(ctx context.Context, tenantID string) ([]*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []*model.Conversation
	for _, conv := range s.conversations {
		if conv.TenantID != tenantID {
			continue
		}
		cp := *conv
		cp.Messages = append([]model.Message(nil), conv.Messages...)
		convs = append(convs, &cp)
	}
	return convs, nil
}

// SetConversation installs a record directly; test helper.
func (s *MemoryStore) SetConversation(conv *model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conversationKey(conv.TenantID, conv.CustomerID)] = conv
}
