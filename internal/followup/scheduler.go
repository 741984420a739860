package followup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/pkg/logger"
	"github.com/lumoscale/lead-engine/pkg/metrics"
)

// Scheduler runs the periodic followup sweep across all tenants. One failing
// tenant or candidate never stops the rest of the sweep.
type Scheduler struct {
	scanner    *Scanner
	generator  *Generator
	dispatcher *Dispatcher
	tenants    tenant.Provider
	interval   time.Duration
	logger     *logger.Logger
}

func NewScheduler(
	scanner *Scanner,
	generator *Generator,
	dispatcher *Dispatcher,
	tenants tenant.Provider,
	interval time.Duration,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		scanner:    scanner,
		generator:  generator,
		dispatcher: dispatcher,
		tenants:    tenants,
		interval:   interval,
		logger:     log,
	}
}

// Run sweeps on the configured interval until the context is cancelled. The
// first sweep happens one full interval after start.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("followup scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("followup scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over every tenant.
func (s *Scheduler) Sweep(ctx context.Context) {
	tenantIDs, err := s.tenants.ListTenants(ctx)
	if err != nil {
		s.logger.Error("tenant listing failed, skipping sweep", zap.Error(err))
		metrics.FollowupSweepsTotal.WithLabelValues("error").Inc()
		return
	}

	now := time.Now().UTC()
	for _, tenantID := range tenantIDs {
		s.sweepTenant(ctx, tenantID, now)
	}
	metrics.FollowupSweepsTotal.WithLabelValues("ok").Inc()
}

func (s *Scheduler) sweepTenant(ctx context.Context, tenantID string, now time.Time) {
	candidates, err := s.scanner.Scan(ctx, tenantID, now)
	if err != nil {
		s.logger.Error("followup scan failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return
	}

	for _, c := range candidates {
		if ctx.Err() != nil {
			return
		}
		draft := s.generator.Generate(ctx, c)
		if !draft.ShouldSend {
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, c, draft); err != nil {
			s.logger.Error("followup dispatch failed",
				zap.String("tenant_id", c.TenantID),
				zap.String("customer_id", c.CustomerID),
				zap.Error(err),
			)
		}
	}
}
