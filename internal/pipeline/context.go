package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

const historyWindow = 20

// ContextStage loads everything later stages need to know about the customer:
// recent history, metadata and the rolling summary. The user type is already
// set by the pipeline, which classifies before the inbound message is
// recorded. Store read failures degrade to empty context rather than failing
// the turn.
type ContextStage struct {
	store  store.ConversationStore
	logger *logger.Logger
}

func NewContextStage(convStore store.ConversationStore, log *logger.Logger) *ContextStage {
	return &ContextStage{store: convStore, logger: log}
}

func (s *ContextStage) Name() string { return "context_load" }

func (s *ContextStage) Run(ctx context.Context, turn *Turn) error {
	log := s.logger.WithConversation(turn.TenantID, turn.CustomerID)

	history, err := s.store.GetHistory(ctx, turn.TenantID, turn.CustomerID, historyWindow)
	if err != nil {
		log.Warn("history load failed", zap.Error(err))
	}
	turn.History = history

	meta, err := s.store.GetMetadata(ctx, turn.TenantID, turn.CustomerID)
	if err != nil {
		log.Warn("metadata load failed", zap.Error(err))
	}
	turn.Metadata = meta

	conv, err := s.store.GetConversation(ctx, turn.TenantID, turn.CustomerID)
	if err == nil && conv != nil {
		turn.Summary = conv.Summary
	}

	return nil
}
