package voice

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumoscale/lead-engine/internal/model"
)

// MemoryQueue is an in-process Queue for tests and single-node development.
type MemoryQueue struct {
	mu      sync.Mutex
	entries map[string]*model.ScheduledFollowup
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{entries: make(map[string]*model.ScheduledFollowup)}
}

func (q *MemoryQueue) Add(_ context.Context, f *model.ScheduledFollowup) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := *f
	q.entries[member(f.TenantID, f.CallID)] = &cp
	return nil
}

func (q *MemoryQueue) Due(_ context.Context, now time.Time) ([]*model.ScheduledFollowup, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []*model.ScheduledFollowup
	for _, f := range q.entries {
		if f.Status == model.ScheduledPending && !f.DueAt.After(now) {
			cp := *f
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DueAt.Before(due[j].DueAt) })
	return due, nil
}

func (q *MemoryQueue) Complete(_ context.Context, tenantID, callID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if f, ok := q.entries[member(tenantID, callID)]; ok {
		f.Status = model.ScheduledCompleted
	}
	return nil
}

func (q *MemoryQueue) Depth(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var n int64
	for _, f := range q.entries {
		if f.Status == model.ScheduledPending {
			n++
		}
	}
	return n, nil
}

// Get returns an entry by identity, for tests.
func (q *MemoryQueue) Get(tenantID, callID string) (*model.ScheduledFollowup, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	f, ok := q.entries[member(tenantID, callID)]
	if !ok {
		return nil, false
	}
	cp := *f
	return &cp, true
}
