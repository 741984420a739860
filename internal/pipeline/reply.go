package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/llm"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/session"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

const fallbackReply = "Thanks for reaching out! Someone from our team will get back to you shortly."

// Base lead score per classified status; a returning customer gets a bonus.
var baseScore = map[model.LeadStatus]int{
	model.LeadHot:  80,
	model.LeadWarm: 50,
	model.LeadCold: 20,
}

const returningBonus = 10

// replyOutput is the structured contract the model must return. Some models
// answer under "response" instead of "reply"; both are accepted.
type replyOutput struct {
	Reply           string `json:"reply"`
	Response        string `json:"response"`
	Intent          string `json:"intent"`
	LeadType        string `json:"lead_type"`
	ShouldOfferBook bool   `json:"should_offer_booking"`
}

func (r *replyOutput) text() string {
	if r.Reply != "" {
		return r.Reply
	}
	return r.Response
}

// ReplyStage asks the model for the reply, intent and lead classification in
// one structured call. Generation failure degrades to a generic reply so the
// customer always hears back.
type ReplyStage struct {
	client   llm.Client
	sessions *session.Memory
	logger   *logger.Logger
}

func NewReplyStage(client llm.Client, sessions *session.Memory, log *logger.Logger) *ReplyStage {
	return &ReplyStage{client: client, sessions: sessions, logger: log}
}

func (s *ReplyStage) Name() string { return "reply_generate" }

func (s *ReplyStage) Run(ctx context.Context, turn *Turn) error {
	log := s.logger.WithConversation(turn.TenantID, turn.CustomerID)

	greeted := s.sessions.GetBool(turn.TenantID, turn.CustomerID, session.KeyGreetingSent)

	var out replyOutput
	err := llm.InvokeStructured(ctx, s.client, &llm.CompletionRequest{
		System:      s.systemPrompt(turn, greeted),
		Messages:    buildMessages(turn),
		MaxTokens:   500,
		Temperature: 0.7,
	}, &out)
	if err != nil {
		var genErr *llm.GenerationError
		if !errors.As(err, &genErr) {
			genErr = &llm.GenerationError{Provider: s.client.Name(), Err: err}
		}
		log.Error("reply generation failed", zap.Error(genErr))
		turn.Err = genErr
		turn.ResponseText = fallbackReply
		turn.Intent = "unclear"
		turn.LeadStatus = model.LeadCold
		turn.LeadScore = scoreLead(model.LeadCold, turn.UserType)
		turn.ActionsTaken = append(turn.ActionsTaken, "generation_failed")
		return nil
	}

	turn.ResponseText = out.text()
	if turn.ResponseText == "" {
		turn.ResponseText = fallbackReply
	}
	turn.Intent = out.Intent
	turn.ShouldBook = out.ShouldOfferBook
	turn.LeadStatus = parseLeadType(out.LeadType)
	turn.LeadScore = scoreLead(turn.LeadStatus, turn.UserType)

	s.sessions.Set(turn.TenantID, turn.CustomerID, session.KeyGreetingSent, true)
	s.sessions.Set(turn.TenantID, turn.CustomerID, session.KeyLastIntent, turn.Intent)

	return nil
}

func (s *ReplyStage) systemPrompt(turn *Turn, greeted bool) string {
	businessCtx := tenant.DefaultContext
	if turn.Config != nil {
		businessCtx = turn.Config.Context(turn.Source)
	}

	var b strings.Builder
	b.WriteString("You are a friendly sales assistant handling direct messages for a business.\n\n")
	b.WriteString(businessCtx)
	b.WriteString("\n## Customer Context\n")
	fmt.Fprintf(&b, "- Customer type: %s\n", turn.UserType)
	if turn.Metadata.Name != "" {
		fmt.Fprintf(&b, "- Name: %s\n", turn.Metadata.Name)
	}
	if turn.Metadata.Intent != "" {
		fmt.Fprintf(&b, "- Previously expressed interest: %s\n", turn.Metadata.Intent)
	}
	if turn.Summary != "" {
		fmt.Fprintf(&b, "- Conversation so far: %s\n", turn.Summary)
	}
	if greeted {
		b.WriteString("- You already greeted this customer in this session. Do NOT greet again; continue the conversation naturally.\n")
	}

	b.WriteString(`
## Your Task
Reply to the customer's latest message. Keep it short, warm and conversational.
If the customer shows buying intent, offer to book a call or appointment.

Return JSON with exactly these keys:
{"reply": "your message to the customer", "intent": "what the customer wants", "lead_type": "hot|warm|cold", "should_offer_booking": true|false}

lead_type guidance: "hot" means ready to buy or book now, "warm" means
interested but not committed, "cold" means browsing or off-topic.`)

	return b.String()
}

// buildMessages converts stored history plus the current inbound text into
// chat messages. The inbound message is already in the store, so history may
// or may not include it; the trailing user message is deduplicated.
func buildMessages(turn *Turn) []llm.ChatMessage {
	msgs := make([]llm.ChatMessage, 0, len(turn.History)+1)
	for _, m := range turn.History {
		role := "user"
		if m.Role == model.RoleAgent {
			role = "assistant"
		}
		msgs = append(msgs, llm.ChatMessage{Role: role, Content: m.Content})
	}
	if len(msgs) == 0 || msgs[len(msgs)-1].Content != turn.Text {
		msgs = append(msgs, llm.ChatMessage{Role: "user", Content: turn.Text})
	}
	return msgs
}

func parseLeadType(s string) model.LeadStatus {
	switch model.LeadStatus(strings.ToLower(strings.TrimSpace(s))) {
	case model.LeadHot:
		return model.LeadHot
	case model.LeadWarm:
		return model.LeadWarm
	default:
		return model.LeadCold
	}
}

// scoreLead derives the numeric lead score from status and customer type.
func scoreLead(status model.LeadStatus, userType model.UserType) int {
	score := baseScore[status]
	if userType == model.UserTypeReturning {
		score += returningBonus
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
