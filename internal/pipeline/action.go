package pipeline

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/channel"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

// MessengerFunc resolves the outbound messenger for a tenant, binding its
// channel credentials.
type MessengerFunc func(cfg *tenant.Config) channel.Messenger

const sendTimeout = 30 * time.Second

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ExtractEmail returns the first email address found in the text.
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ActionStage executes the turn's side effects: finalizing the reply text,
// sending it, persisting it and updating the lead profile.
//
// The send is fire-and-forget relative to the turn when async is set; the
// agent message and lead update are persisted either way.
type ActionStage struct {
	store     store.ConversationStore
	messenger MessengerFunc
	async     bool
	logger    *logger.Logger
}

// NewActionStage wires the side-effect stage. async controls whether the
// outbound send detaches from the turn; tests run it synchronously.
func NewActionStage(convStore store.ConversationStore, messenger MessengerFunc, async bool, log *logger.Logger) *ActionStage {
	return &ActionStage{store: convStore, messenger: messenger, async: async, logger: log}
}

func (s *ActionStage) Name() string { return "side_effects" }

func (s *ActionStage) Run(ctx context.Context, turn *Turn) error {
	log := s.logger.WithConversation(turn.TenantID, turn.CustomerID)

	s.finalizeReply(turn)

	m := s.messenger(turn.Config)
	if s.async {
		go s.send(m, turn.CustomerID, turn.ResponseText, log)
	} else {
		s.send(m, turn.CustomerID, turn.ResponseText, log)
	}
	turn.ActionsTaken = append(turn.ActionsTaken, "dm_sent")

	if err := s.store.AppendMessage(ctx, turn.TenantID, turn.CustomerID, model.Message{
		ID:      uuid.New().String(),
		Role:    model.RoleAgent,
		Content: turn.ResponseText,
	}); err != nil {
		return err
	}

	upd := model.MetadataUpdate{
		LeadScore:  model.Int(turn.LeadScore),
		LeadStatus: model.Status(turn.LeadStatus),
	}
	if turn.Intent != "" {
		upd.Intent = model.String(turn.Intent)
	}
	if err := s.store.MergeMetadata(ctx, turn.TenantID, turn.CustomerID, upd); err != nil {
		log.Warn("lead update failed", zap.Error(err))
	} else {
		turn.ActionsTaken = append(turn.ActionsTaken, "lead_updated")
	}

	return nil
}

// finalizeReply appends the tenant's booking link when the model asked for a
// booking offer but did not include one, then tags every booking URL with the
// customer ref.
func (s *ActionStage) finalizeReply(turn *Turn) {
	text := turn.ResponseText

	if turn.ShouldBook && turn.Config != nil && turn.Config.BookingLink != "" && !HasBookingURL(text) {
		text = text + "\n\n" + turn.Config.BookingLink
	}

	// The ref is always the customer ID. Usernames change; the ID is the
	// key the booking webhook resolves against.
	turn.ResponseText = InjectBookingRef(text, turn.CustomerID)
}

func (s *ActionStage) send(m channel.Messenger, customerID, text string, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if _, err := m.Send(ctx, customerID, text); err != nil {
		log.Error("outbound send failed", zap.Error(err))
	}
}
