package followup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/llm"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

// NoMessageSentinel is what a custom tenant prompt instructs the model to
// return when no followup should be sent.
const NoMessageSentinel = "NO_MESSAGE_NEEDED"

// Generator drafts the followup message for one candidate. A generator never
// fails the sweep: on any error it returns a draft with ShouldSend false.
type Generator struct {
	client  llm.Client
	tenants tenant.Provider
	logger  *logger.Logger
}

func NewGenerator(client llm.Client, tenants tenant.Provider, log *logger.Logger) *Generator {
	return &Generator{client: client, tenants: tenants, logger: log}
}

// Generate decides whether and what to send for the candidate.
func (g *Generator) Generate(ctx context.Context, c model.FollowupCandidate) model.FollowupDraft {
	stage := DetectStage(c.Messages)
	if stage == model.StagePostBooking {
		return model.FollowupDraft{ShouldSend: false, Reasoning: "booking already completed", Stage: stage}
	}

	cfg, err := g.tenants.Load(ctx, c.TenantID)
	if err != nil {
		g.logger.Warn("tenant config load failed during followup",
			zap.String("tenant_id", c.TenantID),
			zap.Error(err),
		)
	}

	if cfg != nil && cfg.FollowupPrompt != "" {
		return g.generateCustom(ctx, c, cfg, stage)
	}
	return g.generateDefault(ctx, c, cfg, stage)
}

// generateCustom runs the tenant's own followup prompt. The model replies with
// plain text, or the sentinel to decline.
func (g *Generator) generateCustom(ctx context.Context, c model.FollowupCandidate, cfg *tenant.Config, stage model.Stage) model.FollowupDraft {
	system := cfg.FollowupPrompt + fmt.Sprintf(
		"\n\nThe customer has been inactive for %.0f hours. This is followup number %d."+
			"\nIf no followup should be sent, respond with exactly %s.",
		c.HoursInactive, c.FollowupNumber(), NoMessageSentinel,
	)

	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		System:      system,
		Messages:    chatHistory(c.Messages),
		MaxTokens:   300,
		Temperature: 0.8,
	})
	if err != nil {
		g.logger.Error("followup generation failed",
			zap.String("tenant_id", c.TenantID),
			zap.String("customer_id", c.CustomerID),
			zap.Error(err),
		)
		return model.FollowupDraft{ShouldSend: false, Reasoning: "generation failed", Stage: stage}
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" || strings.Contains(text, NoMessageSentinel) {
		return model.FollowupDraft{ShouldSend: false, Reasoning: "model declined", Stage: stage}
	}
	return model.FollowupDraft{Message: text, ShouldSend: true, Stage: stage}
}

// generateDefault runs the built-in structured prompt, tailored by tier and
// detected stage.
func (g *Generator) generateDefault(ctx context.Context, c model.FollowupCandidate, cfg *tenant.Config, stage model.Stage) model.FollowupDraft {
	businessCtx := tenant.DefaultContext
	if cfg != nil {
		businessCtx = cfg.Context(model.SourceDM)
	}

	tone := "gentle and curious; pick up the thread of the conversation"
	if c.FollowupNumber() >= 2 {
		tone = "light and final; leave the door open without pressure"
	}

	var b strings.Builder
	b.WriteString("You decide whether to send a re-engagement message to a customer who went quiet.\n\n")
	b.WriteString(businessCtx)
	fmt.Fprintf(&b, "\n## Situation\n- Hours since their last activity: %.0f\n", c.HoursInactive)
	fmt.Fprintf(&b, "- Followup number: %d\n", c.FollowupNumber())
	fmt.Fprintf(&b, "- Conversation stage: %s\n", stage)
	if c.Summary != "" {
		fmt.Fprintf(&b, "- Conversation summary: %s\n", c.Summary)
	}
	fmt.Fprintf(&b, "- Tone: %s\n", tone)
	b.WriteString(`
## Rules
- Do not apologize for following up and do not sound automated.
- If the conversation reached a natural end, do not send anything.

Return JSON: {"followup_message": "...", "should_send": true|false, "reasoning": "..."}`)

	var draft model.FollowupDraft
	err := llm.InvokeStructured(ctx, g.client, &llm.CompletionRequest{
		System:      b.String(),
		Messages:    chatHistory(c.Messages),
		MaxTokens:   300,
		Temperature: 0.8,
	}, &draft)
	if err != nil {
		g.logger.Error("followup generation failed",
			zap.String("tenant_id", c.TenantID),
			zap.String("customer_id", c.CustomerID),
			zap.Error(err),
		)
		return model.FollowupDraft{ShouldSend: false, Reasoning: "generation failed", Stage: stage}
	}

	draft.Stage = stage
	if strings.TrimSpace(draft.Message) == "" {
		draft.ShouldSend = false
	}
	return draft
}

// chatHistory converts the stored tail of the conversation into chat messages.
func chatHistory(msgs []model.Message) []llm.ChatMessage {
	const window = 10
	if len(msgs) > window {
		msgs = msgs[len(msgs)-window:]
	}
	out := make([]llm.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == model.RoleAgent {
			role = "assistant"
		}
		out = append(out, llm.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}

// Keyword groups checked newest-first when deriving the conversation stage.
var stageKeywords = []struct {
	stage model.Stage
	words []string
}{
	{model.StagePostBooking, []string{"booked", "confirmed", "see you", "appointment is set", "scheduled"}},
	{model.StageBooking, []string{"book", "schedule", "appointment", "calendly", "cal.com", "availability"}},
	{model.StagePricing, []string{"price", "cost", "how much", "pricing", "quote", "rates"}},
	{model.StageInquiry, []string{"how does", "what do you", "tell me more", "interested", "do you offer", "?"}},
	{model.StageGreeting, []string{"hi", "hey", "hello", "what's up", "yo"}},
}

// DetectStage derives the conversational stage from recent message text.
func DetectStage(msgs []model.Message) model.Stage {
	const window = 6
	if len(msgs) > window {
		msgs = msgs[len(msgs)-window:]
	}
	var joined strings.Builder
	for _, m := range msgs {
		joined.WriteString(strings.ToLower(m.Content))
		joined.WriteString("\n")
	}
	text := joined.String()

	for _, group := range stageKeywords {
		for _, w := range group.words {
			if strings.Contains(text, w) {
				return group.stage
			}
		}
	}
	return model.StageUnclear
}
