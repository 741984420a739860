package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

// RedisStore is the Redis-backed ConversationStore. Records are JSON blobs
// under conversation:{tenant}:{customer} and customer:{tenant}:{customer};
// every write refreshes the retention TTL.
type RedisStore struct {
	client redis.UniversalClient
	logger *logger.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, log *logger.Logger) (*RedisStore, error) {
	if redisURL == "" {
		return nil, errors.New("Redis URL must be provided")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, logger: log}, nil
}

// Client exposes the underlying connection for collaborators that share it
// (voice queue, tenant provider, readiness checks).
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// AppendMessage appends to the conversation log.
func (s *RedisStore) AppendMessage(ctx context.Context, tenantID, customerID string, msg model.Message) error {
	conv, err := s.loadConversation(ctx, tenantID, customerID)
	if err != nil {
		return &StoreError{Op: "append_message", Err: err}
	}
	if conv == nil {
		conv = &model.Conversation{
			TenantID:   tenantID,
			CustomerID: customerID,
			CreatedAt:  time.Now().UTC(),
		}
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	conv.Messages = append(conv.Messages, msg)
	conv.MessageCount = len(conv.Messages)
	conv.LastInteraction = msg.Timestamp

	if err := s.saveConversation(ctx, conv); err != nil {
		return &StoreError{Op: "append_message", Err: err}
	}

	s.logger.Debug("message appended",
		zap.String("tenant_id", tenantID),
		zap.String("customer_id", customerID),
		zap.String("role", string(msg.Role)),
	)
	return nil
}

// GetConversation returns the full record, or nil if none exists.
func (s *RedisStore) GetConversation(ctx context.Context, tenantID, customerID string) (*model.Conversation, error) {
	conv, err := s.loadConversation(ctx, tenantID, customerID)
	if err != nil {
		s.logger.Error("conversation read failed", zap.Error(err),
			zap.String("tenant_id", tenantID), zap.String("customer_id", customerID))
		return nil, nil
	}
	return conv, nil
}

// GetHistory returns the last limit messages in insertion order.
func (s *RedisStore) GetHistory(ctx context.Context, tenantID, customerID string, limit int) ([]model.Message, error) {
	conv, err := s.loadConversation(ctx, tenantID, customerID)
	if err != nil {
		s.logger.Error("history read failed", zap.Error(err),
			zap.String("tenant_id", tenantID), zap.String("customer_id", customerID))
		return nil, nil
	}
	if conv == nil || len(conv.Messages) == 0 {
		return nil, nil
	}
	msgs := conv.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// ClassifyUser derives new/returning/inactive from the stored record.
func (s *RedisStore) ClassifyUser(ctx context.Context, tenantID, customerID string) model.UserType {
	conv, err := s.loadConversation(ctx, tenantID, customerID)
	if err != nil {
		return model.UserTypeNew
	}
	return Classify(conv, time.Now().UTC())
}

// GetMetadata returns the customer profile, zero-valued if absent.
func (s *RedisStore) GetMetadata(ctx context.Context, tenantID, customerID string) (model.CustomerMetadata, error) {
	var meta model.CustomerMetadata

	data, err := s.client.Get(ctx, customerKey(tenantID, customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return meta, nil
	}
	if err != nil {
		s.logger.Error("metadata read failed", zap.Error(err),
			zap.String("tenant_id", tenantID), zap.String("customer_id", customerID))
		return meta, nil
	}

	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Error("metadata unmarshal failed", zap.Error(err),
			zap.String("customer_id", customerID))
		return model.CustomerMetadata{}, nil
	}
	return meta, nil
}

// MergeMetadata applies a partial update.
func (s *RedisStore) MergeMetadata(ctx context.Context, tenantID, customerID string, upd model.MetadataUpdate) error {
	key := customerKey(tenantID, customerID)

	var meta model.CustomerMetadata
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return &StoreError{Op: "merge_metadata", Err: err}
	}
	if err == nil {
		if uerr := json.Unmarshal(data, &meta); uerr != nil {
			// Start over from a fresh record rather than failing the write.
			s.logger.Warn("metadata unmarshal failed, resetting record",
				zap.String("customer_id", customerID), zap.Error(uerr))
			meta = model.CustomerMetadata{}
		}
	}

	upd.Apply(&meta)
	meta.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(&meta)
	if err != nil {
		return &StoreError{Op: "merge_metadata", Err: err}
	}
	if err := s.client.Set(ctx, key, payload, MetadataTTL).Err(); err != nil {
		return &StoreError{Op: "merge_metadata", Err: err}
	}
	return nil
}

// UpdateSummary sets the rolling conversation summary.
func (s *RedisStore) UpdateSummary(ctx context.Context, tenantID, customerID, summary string, painPoints, topics []string) error {
	conv, err := s.loadConversation(ctx, tenantID, customerID)
	if err != nil {
		return &StoreError{Op: "update_summary", Err: err}
	}
	if conv == nil {
		return nil
	}

	conv.Summary = summary
	if len(painPoints) > 0 {
		conv.PainPoints = painPoints
	}
	if len(topics) > 0 {
		conv.Topics = topics
	}

	if err := s.saveConversation(ctx, conv); err != nil {
		return &StoreError{Op: "update_summary", Err: err}
	}
	return nil
}

// RecordFollowup appends a followup message and bumps the followup counter in
// a single write.
func (s *RedisStore) RecordFollowup(ctx context.Context, tenantID, customerID string, msg model.Message) error {
	conv, err := s.loadConversation(ctx, tenantID, customerID)
	if err != nil {
		return &StoreError{Op: "record_followup", Err: err}
	}
	if conv == nil {
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

	if err := s.saveConversation(ctx, conv); err != nil {
		return &StoreError{Op: "record_followup", Err: err}
	}
	return nil
}

// ListConversations returns all conversation records for a tenant. Corrupt
// records are skipped and logged.
func (s *RedisStore) ListConversations(ctx context.Context, tenantID string) ([]*model.Conversation, error) {
	pattern := fmt.Sprintf("conversation:%s:*", tenantID)

	var convs []*model.Conversation
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			s.logger.Warn("conversation read failed during scan",
				zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		var conv model.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			s.logger.Warn("skipping corrupt conversation record",
				zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		convs = append(convs, &conv)
	}
	if err := iter.Err(); err != nil {
		return convs, &StoreError{Op: "list_conversations", Err: err}
	}
	return convs, nil
}

func (s *RedisStore) loadConversation(ctx context.Context, tenantID, customerID string) (*model.Conversation, error) {
	data, err := s.client.Get(ctx, conversationKey(tenantID, customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *RedisStore) saveConversation(ctx context.Context, conv *model.Conversation) error {
	payload, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, conversationKey(conv.TenantID, conv.CustomerID), payload, ConversationTTL).Err()
}
