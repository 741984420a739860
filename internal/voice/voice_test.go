package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/pkg/logger"
)

type stubVoiceChannel struct {
	mu     sync.Mutex
	sms    []string
	calls  []string
	smsErr error
}

func (c *stubVoiceChannel) SendSMS(ctx context.Context, phone, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.smsErr != nil {
		return c.smsErr
	}
	c.sms = append(c.sms, phone+": "+text)
	return nil
}

func (c *stubVoiceChannel) TriggerCall(ctx context.Context, phone string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, phone)
	return nil
}

var testTiers = Tiers{
	WarmDelay: time.Hour,
	ColdDelay: 24 * time.Hour,
}

func TestScheduleWarmLead(t *testing.T) {
	q := NewMemoryQueue()
	s := NewScheduler(q, testTiers, logger.NewNop())

	before := time.Now().UTC()
	f, err := s.Schedule(context.Background(), "t1", "call-1", model.LeadWarm, model.VoiceLead{
		Name: "Jane", Phone: "+15550001111",
	})
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, model.FollowupCallAndSMS, f.Kind)
	assert.Equal(t, model.ScheduledPending, f.Status)
	assert.WithinDuration(t, before.Add(testTiers.WarmDelay), f.DueAt, 5*time.Second)

	stored, ok := q.Get("t1", "call-1")
	require.True(t, ok)
	assert.Equal(t, model.LeadWarm, stored.LeadType)
}

func TestScheduleColdLead(t *testing.T) {
	q := NewMemoryQueue()
	s := NewScheduler(q, testTiers, logger.NewNop())

	f, err := s.Schedule(context.Background(), "t1", "call-2", model.LeadCold, model.VoiceLead{Phone: "+15550002222"})
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.FollowupSMSOnly, f.Kind)
	assert.WithinDuration(t, time.Now().UTC().Add(testTiers.ColdDelay), f.DueAt, 5*time.Second)
}

func TestScheduleHotLeadSkipped(t *testing.T) {
	q := NewMemoryQueue()
	s := NewScheduler(q, testTiers, logger.NewNop())

	f, err := s.Schedule(context.Background(), "t1", "call-3", model.LeadHot, model.VoiceLead{Phone: "+15550003333"})
	require.NoError(t, err)
	assert.Nil(t, f)

	depth, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func enqueue(t *testing.T, q Queue, callID string, kind model.FollowupKind, dueAt time.Time) {
	t.Helper()
	require.NoError(t, q.Add(context.Background(), &model.ScheduledFollowup{
		TenantID: "t1",
		CallID:   callID,
		LeadType: model.LeadWarm,
		Kind:     kind,
		DueAt:    dueAt,
		Status:   model.ScheduledPending,
		Lead:     model.VoiceLead{Name: "Jane", Phone: "+15550001111", ServiceInterest: "web design"},
	}))
}

func TestSweepExecutesOnlyDueEntries(t *testing.T) {
	q := NewMemoryQueue()
	ch := &stubVoiceChannel{}
	p := NewPoller(q, ch, "https://cal.example/book", time.Second, logger.NewNop())

	now := time.Now().UTC()
	enqueue(t, q, "due-1", model.FollowupSMSOnly, now.Add(-time.Minute))
	enqueue(t, q, "later-1", model.FollowupSMSOnly, now.Add(time.Hour))

	p.Sweep(context.Background())

	require.Len(t, ch.sms, 1)
	assert.Contains(t, ch.sms[0], "+15550001111")

	executed, ok := q.Get("t1", "due-1")
	require.True(t, ok)
	assert.Equal(t, model.ScheduledCompleted, executed.Status)

	pending, ok := q.Get("t1", "later-1")
	require.True(t, ok)
	assert.Equal(t, model.ScheduledPending, pending.Status)
}

func TestSweepExecutesEachEntryOnce(t *testing.T) {
	q := NewMemoryQueue()
	ch := &stubVoiceChannel{}
	p := NewPoller(q, ch, "https://cal.example/book", time.Second, logger.NewNop())

	enqueue(t, q, "due-1", model.FollowupSMSOnly, time.Now().UTC().Add(-time.Minute))

	p.Sweep(context.Background())
	p.Sweep(context.Background())

	assert.Len(t, ch.sms, 1, "completed entries never run again")
}

func TestSweepWarmLeadAlsoCalls(t *testing.T) {
	q := NewMemoryQueue()
	ch := &stubVoiceChannel{}
	p := NewPoller(q, ch, "https://cal.example/book", time.Second, logger.NewNop())

	enqueue(t, q, "due-1", model.FollowupCallAndSMS, time.Now().UTC().Add(-time.Minute))
	p.Sweep(context.Background())

	require.Len(t, ch.sms, 1)
	require.Len(t, ch.calls, 1)
	assert.Equal(t, "+15550001111", ch.calls[0])
}

func TestSweepFailureLeavesEntryPending(t *testing.T) {
	q := NewMemoryQueue()
	ch := &stubVoiceChannel{smsErr: errors.New("sms gateway down")}
	p := NewPoller(q, ch, "https://cal.example/book", time.Second, logger.NewNop())

	enqueue(t, q, "due-1", model.FollowupSMSOnly, time.Now().UTC().Add(-time.Minute))
	p.Sweep(context.Background())

	f, ok := q.Get("t1", "due-1")
	require.True(t, ok)
	assert.Equal(t, model.ScheduledPending, f.Status, "failed entries retry on the next sweep")
}

func TestSMSTextMergesLeadFields(t *testing.T) {
	f := &model.ScheduledFollowup{
		Kind: model.FollowupSMSOnly,
		Lead: model.VoiceLead{Name: "Jane", ServiceInterest: "web design"},
	}
	text := smsText(f, "https://cal.example/book")
	assert.Contains(t, text, "Jane")
	assert.Contains(t, text, "web design")
	assert.Contains(t, text, "https://cal.example/book")

	empty := smsText(&model.ScheduledFollowup{Kind: model.FollowupSMSOnly}, "https://cal.example/book")
	assert.Contains(t, empty, "Hi there")
}
