package followup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoscale/lead-engine/internal/llm"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

type stubLLM struct {
	content string
	err     error
}

func (c *stubLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &llm.CompletionResponse{Content: c.content}, nil
}

func (c *stubLLM) Name() string { return "stub" }

func candidate() model.FollowupCandidate {
	return model.FollowupCandidate{
		TenantID:   "t1",
		CustomerID: "c1",
		Messages: []model.Message{
			{Role: model.RoleCustomer, Content: "how much are your classes?"},
			{Role: model.RoleAgent, Content: "Our classes start at $20!"},
		},
		HoursInactive: 4,
	}
}

func TestGenerateDefaultPrompt(t *testing.T) {
	client := &stubLLM{content: `{"followup_message": "Still curious about the classes?", "should_send": true, "reasoning": "open pricing question"}`}
	g := NewGenerator(client, &tenant.StaticProvider{}, logger.NewNop())

	draft := g.Generate(context.Background(), candidate())
	assert.True(t, draft.ShouldSend)
	assert.Equal(t, "Still curious about the classes?", draft.Message)
	assert.Equal(t, model.StagePricing, draft.Stage)
}

func TestGenerateDeclines(t *testing.T) {
	client := &stubLLM{content: `{"followup_message": "", "should_send": false, "reasoning": "conversation concluded"}`}
	g := NewGenerator(client, &tenant.StaticProvider{}, logger.NewNop())

	draft := g.Generate(context.Background(), candidate())
	assert.False(t, draft.ShouldSend)
}

func TestGenerateNeverFailsTheSweep(t *testing.T) {
	client := &stubLLM{err: errors.New("model down")}
	g := NewGenerator(client, &tenant.StaticProvider{}, logger.NewNop())

	draft := g.Generate(context.Background(), candidate())
	assert.False(t, draft.ShouldSend)
	assert.NotEmpty(t, draft.Reasoning)
}

func TestGenerateCustomPrompt(t *testing.T) {
	tenants := &tenant.StaticProvider{
		Configs: map[string]*tenant.Config{
			"t1": {TenantID: "t1", BusinessName: "Acme", FollowupPrompt: "Write in Acme's house voice."},
		},
	}

	t.Run("plain text reply", func(t *testing.T) {
		client := &stubLLM{content: "Hey! Those $20 intro classes are filling up this week."}
		g := NewGenerator(client, tenants, logger.NewNop())

		draft := g.Generate(context.Background(), candidate())
		require.True(t, draft.ShouldSend)
		assert.Contains(t, draft.Message, "intro classes")
	})

	t.Run("sentinel declines", func(t *testing.T) {
		client := &stubLLM{content: "NO_MESSAGE_NEEDED"}
		g := NewGenerator(client, tenants, logger.NewNop())

		draft := g.Generate(context.Background(), candidate())
		assert.False(t, draft.ShouldSend)
	})
}

func TestGenerateSkipsPostBooking(t *testing.T) {
	client := &stubLLM{content: `{"followup_message": "should not matter", "should_send": true}`}
	g := NewGenerator(client, &tenant.StaticProvider{}, logger.NewNop())

	c := candidate()
	c.Messages = []model.Message{
		{Role: model.RoleCustomer, Content: "just booked for tuesday"},
		{Role: model.RoleAgent, Content: "Confirmed! See you then."},
	}

	draft := g.Generate(context.Background(), c)
	assert.False(t, draft.ShouldSend)
	assert.Equal(t, model.StagePostBooking, draft.Stage)
}

func TestDetectStage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.Stage
	}{
		{"pricing", "how much does it cost", model.StagePricing},
		{"booking", "can I schedule a visit", model.StageBooking},
		{"post booking", "my appointment is set", model.StagePostBooking},
		{"greeting", "hey", model.StageGreeting},
		{"unclear", "lorem ipsum", model.StageUnclear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectStage([]model.Message{{Role: model.RoleCustomer, Content: tt.text}})
			assert.Equal(t, tt.want, got)
		})
	}
}
