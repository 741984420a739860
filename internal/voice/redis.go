package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

const (
	scheduleKey    = "followups:scheduled"
	entryPrefix    = "followup:"
	entryRetainFor = 7 * 24 * time.Hour
)

func entryKey(tenantID, callID string) string {
	return fmt.Sprintf("%s%s:%s", entryPrefix, tenantID, callID)
}

func member(tenantID, callID string) string {
	return tenantID + ":" + callID
}

// RedisQueue keeps the due-time index in a sorted set scored by due time, with
// the full entry in a separate key per followup.
type RedisQueue struct {
	client redis.UniversalClient
	logger *logger.Logger
}

func NewRedisQueue(client redis.UniversalClient, log *logger.Logger) *RedisQueue {
	return &RedisQueue{client: client, logger: log}
}

func (q *RedisQueue) Add(ctx context.Context, f *model.ScheduledFollowup) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode followup: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, entryKey(f.TenantID, f.CallID), data, entryRetainFor)
	pipe.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(f.DueAt.Unix()),
		Member: member(f.TenantID, f.CallID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to schedule followup: %w", err)
	}
	return nil
}

func (q *RedisQueue) Due(ctx context.Context, now time.Time) ([]*model.ScheduledFollowup, error) {
	members, err := q.client.ZRangeByScore(ctx, scheduleKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read due followups: %w", err)
	}

	var due []*model.ScheduledFollowup
	for _, m := range members {
		data, err := q.client.Get(ctx, entryPrefix+m).Bytes()
		if err == redis.Nil {
			// Orphaned index member; drop it.
			q.client.ZRem(ctx, scheduleKey, m)
			continue
		}
		if err != nil {
			q.logger.Warn("followup entry read failed", zap.String("member", m), zap.Error(err))
			continue
		}

		var f model.ScheduledFollowup
		if err := json.Unmarshal(data, &f); err != nil {
			q.logger.Warn("corrupt followup entry skipped", zap.String("member", m), zap.Error(err))
			q.client.ZRem(ctx, scheduleKey, m)
			continue
		}
		if f.Status != model.ScheduledPending {
			q.client.ZRem(ctx, scheduleKey, m)
			continue
		}
		due = append(due, &f)
	}
	return due, nil
}

func (q *RedisQueue) Complete(ctx context.Context, tenantID, callID string) error {
	key := entryKey(tenantID, callID)
	data, err := q.client.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read followup entry: %w", err)
	}

	// Status flip and index removal go out together, same as Add.
	pipe := q.client.TxPipeline()
	if err == nil {
		var f model.ScheduledFollowup
		if jsonErr := json.Unmarshal(data, &f); jsonErr == nil {
			f.Status = model.ScheduledCompleted
			if updated, marshalErr := json.Marshal(&f); marshalErr == nil {
				pipe.Set(ctx, key, updated, entryRetainFor)
			}
		}
	}
	pipe.ZRem(ctx, scheduleKey, member(tenantID, callID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to complete followup: %w", err)
	}
	return nil
}

func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, scheduleKey).Result()
}
