// Package pipeline implements the conversation turn pipeline: an ordered,
// non-branching sequence of stages that turns one inbound message into an
// outbound reply and a set of durable side effects.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/events"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
	"github.com/lumoscale/lead-engine/pkg/metrics"
)

// Turn is the state threaded through the stages for one inbound message.
type Turn struct {
	*model.TurnContext
	Config *tenant.Config
}

// Stage is one pipeline step. Stages mutate the turn in place; a returned
// error aborts the remaining stages and surfaces to the caller.
type Stage interface {
	Name() string
	Run(ctx context.Context, turn *Turn) error
}

// Pipeline composes the fixed Context-Load, Reply-Generate and
// Side-Effect-Execute sequence.
type Pipeline struct {
	store      store.ConversationStore
	tenants    tenant.Provider
	stages     []Stage
	summarizer *Summarizer
	publisher  events.Publisher
	logger     *logger.Logger
}

// New wires the three-stage pipeline. summarizer may be nil to disable the
// post-turn reflection step.
func New(
	convStore store.ConversationStore,
	tenants tenant.Provider,
	contextStage, replyStage, actionStage Stage,
	summarizer *Summarizer,
	publisher events.Publisher,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		store:      convStore,
		tenants:    tenants,
		stages:     []Stage{contextStage, replyStage, actionStage},
		summarizer: summarizer,
		publisher:  publisher,
		logger:     log,
	}
}

// HandleInbound processes one inbound message end to end.
//
// The inbound message is durably recorded before any stage runs, so a later
// stage failure never loses customer input. A blocked customer short-circuits
// after context load with an explicit skipped result.
func (p *Pipeline) HandleInbound(ctx context.Context, in model.InboundMessage) (*model.TurnResult, error) {
	start := time.Now()
	log := p.logger.WithConversation(in.TenantID, in.CustomerID)

	cfg, err := p.tenants.Load(ctx, in.TenantID)
	if err != nil {
		log.Warn("tenant config load failed", zap.Error(err))
	}

	turn := &Turn{
		TurnContext: &model.TurnContext{
			TenantID:     in.TenantID,
			CustomerID:   in.CustomerID,
			Username:     in.Username,
			CustomerName: in.CustomerName,
			Text:         in.Text,
			Source:       in.Source,
			StartedAt:    start,
		},
		Config: cfg,
	}

	// Classification reads the state as it was before this message arrived.
	// A first-ever sender is new, and a long-dormant one is inactive, even
	// though the inbound append below resets last_interaction.
	turn.UserType = p.store.ClassifyUser(ctx, in.TenantID, in.CustomerID)

	// Record the inbound message first; no customer input is ever lost to a
	// downstream failure.
	if err := p.store.AppendMessage(ctx, in.TenantID, in.CustomerID, model.Message{
		ID:      uuid.New().String(),
		Role:    model.RoleCustomer,
		Content: in.Text,
	}); err != nil {
		metrics.RecordTurn(in.TenantID, "store_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to record inbound message: %w", err)
	}

	p.enrichProfile(ctx, in, log)
	p.captureEmail(ctx, in, log)

	for i, stage := range p.stages {
		// The blocked flag is known once context load has run; the reply
		// and action stages never execute for a blocked customer.
		if i > 0 && turn.Metadata.AgentBlocked {
			log.Info("customer blocked, skipping agent")
			turn.ActionsTaken = append(turn.ActionsTaken, "skipped_blocked")
			metrics.RecordTurn(in.TenantID, "blocked", time.Since(start).Seconds())
			return resultFrom(turn, true), nil
		}

		if err := stage.Run(ctx, turn); err != nil {
			log.Error("pipeline stage failed",
				zap.String("stage", stage.Name()),
				zap.Error(err),
			)
			metrics.RecordTurn(in.TenantID, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}

	result := resultFrom(turn, false)
	metrics.RecordTurn(in.TenantID, "ok", time.Since(start).Seconds())

	if p.summarizer != nil {
		p.summarizer.Queue(in.TenantID, in.CustomerID)
	}

	p.publisher.Publish(ctx, &model.TurnEvent{
		Type:       model.EventTurnCompleted,
		TenantID:   in.TenantID,
		CustomerID: in.CustomerID,
		Intent:     turn.Intent,
		LeadScore:  turn.LeadScore,
		LeadStatus: turn.LeadStatus,
	})

	log.Info("turn completed",
		zap.String("user_type", string(turn.UserType)),
		zap.String("intent", turn.Intent),
		zap.String("lead_status", string(turn.LeadStatus)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// enrichProfile stores channel-supplied identity for customers we have not
// profiled yet.
func (p *Pipeline) enrichProfile(ctx context.Context, in model.InboundMessage, log *logger.Logger) {
	if in.Username == "" && in.CustomerName == "" {
		return
	}
	meta, _ := p.store.GetMetadata(ctx, in.TenantID, in.CustomerID)
	if meta.Username != "" || meta.Name != "" {
		return
	}

	upd := model.MetadataUpdate{}
	if in.Username != "" {
		upd.Username = model.String(in.Username)
	}
	if in.CustomerName != "" {
		upd.Name = model.String(in.CustomerName)
	}
	if err := p.store.MergeMetadata(ctx, in.TenantID, in.CustomerID, upd); err != nil {
		log.Warn("profile enrichment failed", zap.Error(err))
	}
}

// captureEmail scans the inbound text for an email address and merges it into
// customer metadata.
func (p *Pipeline) captureEmail(ctx context.Context, in model.InboundMessage, log *logger.Logger) {
	email := ExtractEmail(in.Text)
	if email == "" {
		return
	}
	if err := p.store.MergeMetadata(ctx, in.TenantID, in.CustomerID, model.MetadataUpdate{
		Email: model.String(email),
	}); err != nil {
		log.Warn("email capture failed", zap.Error(err))
	}
}

func resultFrom(turn *Turn, blocked bool) *model.TurnResult {
	return &model.TurnResult{
		CustomerID:   turn.CustomerID,
		UserType:     turn.UserType,
		ResponseText: turn.ResponseText,
		Intent:       turn.Intent,
		LeadScore:    turn.LeadScore,
		LeadStatus:   turn.LeadStatus,
		ActionsTaken: turn.ActionsTaken,
		Blocked:      blocked,
		Errored:      turn.Err != nil,
	}
}
