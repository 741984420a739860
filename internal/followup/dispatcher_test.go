package followup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoscale/lead-engine/internal/channel"
	"github.com/lumoscale/lead-engine/internal/events"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

type stubMessenger struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *stubMessenger) Send(ctx context.Context, customerID, text string) (*channel.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, text)
	return &channel.SendResult{MessageID: "mid-1"}, nil
}

func (m *stubMessenger) SendTyping(ctx context.Context, customerID string, on bool) error { return nil }
func (m *stubMessenger) SendReadReceipt(ctx context.Context, customerID string) error     { return nil }

func newDispatcher(memStore *store.MemoryStore, msgr channel.Messenger) *Dispatcher {
	return NewDispatcher(
		memStore,
		&tenant.StaticProvider{},
		func(cfg *tenant.Config) channel.Messenger { return msgr },
		events.NopPublisher{},
		logger.NewNop(),
	)
}

func TestDispatchRecordsTier(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	memStore.SetConversation(agentLast("c1", time.Now().UTC().Add(-3*time.Hour)))
	msgr := &stubMessenger{}

	d := newDispatcher(memStore, msgr)
	c := model.FollowupCandidate{TenantID: "t1", CustomerID: "c1"}
	draft := model.FollowupDraft{Message: "still there?", ShouldSend: true}

	require.NoError(t, d.Dispatch(ctx, c, draft))
	require.Len(t, msgr.sent, 1)

	conv, err := memStore.GetConversation(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, conv.FollowupCount)
	assert.True(t, conv.LastMessage().IsFollowup)
}

func TestDispatchSendFailureLeavesTierUnrecorded(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	memStore.SetConversation(agentLast("c1", time.Now().UTC().Add(-3*time.Hour)))
	msgr := &stubMessenger{err: errors.New("channel down")}

	d := newDispatcher(memStore, msgr)
	c := model.FollowupCandidate{TenantID: "t1", CustomerID: "c1"}
	err := d.Dispatch(ctx, c, model.FollowupDraft{Message: "still there?", ShouldSend: true})
	require.Error(t, err)

	conv, lerr := memStore.GetConversation(ctx, "t1", "c1")
	require.NoError(t, lerr)
	assert.Equal(t, 0, conv.FollowupCount, "an unconfirmed send must stay retryable")
}

// Repeated sweeps over the same quiet conversation never exceed the lifetime
// cap: each dispatched tier advances the counter and the scanner stops
// producing the candidate once the cap is reached.
func TestSweepsBoundedByCap(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	msgr := &stubMessenger{}
	scanner := NewScanner(memStore, testPolicy, logger.NewNop())
	d := newDispatcher(memStore, msgr)

	now := time.Now().UTC()
	memStore.SetConversation(agentLast("c1", now.Add(-72*time.Hour)))

	for sweep := 0; sweep < 5; sweep++ {
		// Each simulated sweep happens a day after the previous one so the
		// inter-tier gap is always satisfied.
		at := now.Add(time.Duration(sweep) * 25 * time.Hour)
		candidates, err := scanner.Scan(ctx, "t1", at)
		require.NoError(t, err)
		for _, c := range candidates {
			require.NoError(t, d.Dispatch(ctx, c, model.FollowupDraft{Message: "ping", ShouldSend: true}))
		}
	}

	conv, err := memStore.GetConversation(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, testPolicy.Max, conv.FollowupCount)
	assert.Len(t, msgr.sent, testPolicy.Max)
}
