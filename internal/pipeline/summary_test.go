package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

func seedExchange(t *testing.T, memStore *store.MemoryStore, tenantID, customerID string, turns int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < turns; i++ {
		require.NoError(t, memStore.AppendMessage(ctx, tenantID, customerID, model.Message{
			ID: fmt.Sprintf("c%d", i), Role: model.RoleCustomer, Content: "do you do evening classes?",
		}))
		require.NoError(t, memStore.AppendMessage(ctx, tenantID, customerID, model.Message{
			ID: fmt.Sprintf("a%d", i), Role: model.RoleAgent, Content: "we do, Tuesdays and Thursdays",
		}))
	}
}

func TestSummarizerWritesRollingSummary(t *testing.T) {
	client := &stubLLM{content: `{"summary": "Customer wants evening classes.", "pain_points": ["schedule conflicts"], "topics": ["class times"]}`}
	memStore := store.NewMemoryStore()
	s := NewSummarizer(memStore, client, false, logger.NewNop())

	seedExchange(t, memStore, "t1", "c1", 3)
	s.Queue("t1", "c1")

	conv, err := memStore.GetConversation(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Customer wants evening classes.", conv.Summary)
	assert.Equal(t, []string{"schedule conflicts"}, conv.PainPoints)
	assert.Equal(t, []string{"class times"}, conv.Topics)
}

func TestSummarizerSkipsShortConversations(t *testing.T) {
	client := &stubLLM{content: `{"summary": "should not be written"}`}
	memStore := store.NewMemoryStore()
	s := NewSummarizer(memStore, client, false, logger.NewNop())

	seedExchange(t, memStore, "t1", "c2", 1)
	s.Queue("t1", "c2")

	assert.Zero(t, client.callCount())
	conv, err := memStore.GetConversation(context.Background(), "t1", "c2")
	require.NoError(t, err)
	assert.Empty(t, conv.Summary)
}

func TestSummarizerSwallowsGenerationFailure(t *testing.T) {
	client := &stubLLM{err: errors.New("model overloaded")}
	memStore := store.NewMemoryStore()
	s := NewSummarizer(memStore, client, false, logger.NewNop())

	seedExchange(t, memStore, "t1", "c3", 3)
	s.Queue("t1", "c3")

	conv, err := memStore.GetConversation(context.Background(), "t1", "c3")
	require.NoError(t, err)
	assert.Empty(t, conv.Summary)
}
