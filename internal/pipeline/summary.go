package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/llm"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

const (
	summaryTimeout = 30 * time.Second
	summaryWindow  = 12
	// Short exchanges carry their own context; reflection starts once the
	// conversation has a few turns to condense.
	summaryMinMessages = 4
)

const summarySystemPrompt = `You condense a sales conversation into notes for the next agent turn.
Summarize what the customer wants, where the conversation stands and anything agreed so far.

Respond with JSON:
{
  "summary": "2-3 sentence rolling summary",
  "pain_points": ["customer problems mentioned"],
  "topics": ["subjects discussed"]
}`

type reflection struct {
	Summary    string   `json:"summary"`
	PainPoints []string `json:"pain_points"`
	Topics     []string `json:"topics"`
}

// Summarizer maintains the rolling conversation summary. It runs after a
// completed turn, outside the turn's latency path, and every failure is
// swallowed with a log line: the summary is an enrichment, never a
// prerequisite.
type Summarizer struct {
	store  store.ConversationStore
	client llm.Client
	async  bool
	logger *logger.Logger
}

// NewSummarizer wires the post-turn reflection step. async detaches it from
// the caller; tests run it synchronously.
func NewSummarizer(convStore store.ConversationStore, client llm.Client, async bool, log *logger.Logger) *Summarizer {
	return &Summarizer{store: convStore, client: client, async: async, logger: log}
}

// Queue schedules one reflection for the conversation.
func (s *Summarizer) Queue(tenantID, customerID string) {
	if s.async {
		go s.reflect(tenantID, customerID)
		return
	}
	s.reflect(tenantID, customerID)
}

func (s *Summarizer) reflect(tenantID, customerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
	defer cancel()

	log := s.logger.WithConversation(tenantID, customerID)

	history, err := s.store.GetHistory(ctx, tenantID, customerID, summaryWindow)
	if err != nil || len(history) < summaryMinMessages {
		return
	}

	messages := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == model.RoleAgent {
			role = "assistant"
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: "Summarize the conversation so far."})

	var out reflection
	if err := llm.InvokeStructured(ctx, s.client, &llm.CompletionRequest{
		System:      summarySystemPrompt,
		Messages:    messages,
		MaxTokens:   300,
		Temperature: 0.3,
	}, &out); err != nil {
		log.Warn("conversation reflection failed", zap.Error(err))
		return
	}
	if out.Summary == "" {
		return
	}

	if err := s.store.UpdateSummary(ctx, tenantID, customerID, out.Summary, out.PainPoints, out.Topics); err != nil {
		log.Warn("summary write failed", zap.Error(err))
	}
}
