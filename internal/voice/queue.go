// Package voice schedules and executes post-call followups for voice leads:
// a templated SMS for warm and cold leads, plus an outbound call for warm.
package voice

import (
	"context"
	"time"

	"github.com/lumoscale/lead-engine/internal/model"
)

// Queue is the durable due-time index of scheduled voice followups.
//
// Entries are identified by (tenant_id, call_id). Due returns only pending
// entries; Complete transitions an entry out of pending and removes it from
// the due-time index so it never executes twice.
type Queue interface {
	// Add schedules a followup. Re-adding the same (tenant, call) overwrites
	// the prior entry.
	Add(ctx context.Context, f *model.ScheduledFollowup) error

	// Due returns pending entries with due_at at or before now.
	Due(ctx context.Context, now time.Time) ([]*model.ScheduledFollowup, error)

	// Complete marks the entry completed and removes it from the index.
	Complete(ctx context.Context, tenantID, callID string) error

	// Depth returns the number of scheduled entries still in the index.
	Depth(ctx context.Context) (int64, error)
}
