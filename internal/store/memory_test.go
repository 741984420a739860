package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoscale/lead-engine/internal/model"
)

func TestAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendMessage(ctx, "t1", "c1", model.Message{ID: "m1", Role: model.RoleCustomer, Content: "hi"}))
	require.NoError(t, s.AppendMessage(ctx, "t1", "c1", model.Message{ID: "m2", Role: model.RoleAgent, Content: "hello!"}))
	require.NoError(t, s.AppendMessage(ctx, "t1", "c1", model.Message{ID: "m3", Role: model.RoleCustomer, Content: "pricing?"}))

	history, err := s.GetHistory(ctx, "t1", "c1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "m2", history[0].ID)
	assert.Equal(t, "m3", history[1].ID)

	conv, err := s.GetConversation(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, conv.MessageCount)
	assert.False(t, conv.LastInteraction.IsZero())
}

func TestHistoryMissingConversation(t *testing.T) {
	s := NewMemoryStore()

	history, err := s.GetHistory(context.Background(), "t1", "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendMessage(ctx, "t1", "c1", model.Message{ID: "m1", Role: model.RoleCustomer, Content: "hi"}))

	history, err := s.GetHistory(ctx, "t2", "c1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClassify(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		conv *model.Conversation
		want model.UserType
	}{
		{"no record", nil, model.UserTypeNew},
		{"empty log", &model.Conversation{}, model.UserTypeNew},
		{
			"recent activity",
			&model.Conversation{
				Messages:        []model.Message{{ID: "m1"}},
				LastInteraction: now.Add(-3 * time.Hour),
			},
			model.UserTypeReturning,
		},
		{
			"past the window",
			&model.Conversation{
				Messages:        []model.Message{{ID: "m1"}},
				LastInteraction: now.Add(-8 * 24 * time.Hour),
			},
			model.UserTypeInactive,
		},
		{
			"exactly at the boundary",
			&model.Conversation{
				Messages:        []model.Message{{ID: "m1"}},
				LastInteraction: now.Add(-model.InactiveAfter),
			},
			model.UserTypeReturning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.conv, now))
		})
	}
}

func TestMergeMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.MergeMetadata(ctx, "t1", "c1", model.MetadataUpdate{
		Username:  model.String("jane_doe"),
		LeadScore: model.Int(50),
	}))
	require.NoError(t, s.MergeMetadata(ctx, "t1", "c1", model.MetadataUpdate{
		LeadScore:  model.Int(80),
		LeadStatus: model.Status(model.LeadHot),
	}))

	meta, err := s.GetMetadata(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "jane_doe", meta.Username)
	assert.Equal(t, 80, meta.LeadScore)
	assert.Equal(t, model.LeadHot, meta.LeadStatus)
}

func TestMergeMetadataIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	upd := model.MetadataUpdate{
		LeadScore:    model.Int(60),
		AgentBlocked: model.Bool(true),
	}
	require.NoError(t, s.MergeMetadata(ctx, "t1", "c1", upd))
	first, err := s.GetMetadata(ctx, "t1", "c1")
	require.NoError(t, err)

	require.NoError(t, s.MergeMetadata(ctx, "t1", "c1", upd))
	second, err := s.GetMetadata(ctx, "t1", "c1")
	require.NoError(t, err)

	assert.Equal(t, first.LeadScore, second.LeadScore)
	assert.Equal(t, first.AgentBlocked, second.AgentBlocked)
}

func TestRecordFollowup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendMessage(ctx, "t1", "c1", model.Message{ID: "m1", Role: model.RoleCustomer, Content: "hi"}))
	require.NoError(t, s.RecordFollowup(ctx, "t1", "c1", model.Message{ID: "f1", Content: "still there?"}))

	conv, err := s.GetConversation(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, conv.FollowupCount)
	require.NotNil(t, conv.LastFollowupAt)

	last := conv.LastMessage()
	require.NotNil(t, last)
	assert.Equal(t, model.RoleAgent, last.Role)
	assert.True(t, last.IsFollowup)
}

func TestUpdateSummary(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendMessage(ctx, "t1", "c1", model.Message{ID: "m1", Role: model.RoleCustomer, Content: "hi"}))
	require.NoError(t, s.UpdateSummary(ctx, "t1", "c1", "asked about pricing", []string{"budget"}, []string{"pricing"}))

	conv, err := s.GetConversation(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "asked about pricing", conv.Summary)
	assert.Equal(t, []string{"budget"}, conv.PainPoints)
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendMessage(ctx, "t1", "c1", model.Message{ID: "m1", Role: model.RoleCustomer, Content: "hi"}))
	require.NoError(t, s.AppendMessage(ctx, "t1", "c2", model.Message{ID: "m2", Role: model.RoleCustomer, Content: "hey"}))
	require.NoError(t, s.AppendMessage(ctx, "t2", "c3", model.Message{ID: "m3", Role: model.RoleCustomer, Content: "yo"}))

	convs, err := s.ListConversations(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}
