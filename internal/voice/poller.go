package voice

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/channel"
	"github.com/lumoscale/lead-engine/internal/model"
	"github.com/lumoscale/lead-engine/pkg/logger"
	"github.com/lumoscale/lead-engine/pkg/metrics"
)

// Poller executes due voice followups on a short fixed interval. Each entry is
// handled in isolation; one failure never blocks the rest of the sweep.
type Poller struct {
	queue       Queue
	channel     channel.VoiceChannel
	bookingLink string
	interval    time.Duration
	logger      *logger.Logger
}

func NewPoller(queue Queue, voiceChannel channel.VoiceChannel, bookingLink string, interval time.Duration, log *logger.Logger) *Poller {
	return &Poller{
		queue:       queue,
		channel:     voiceChannel,
		bookingLink: bookingLink,
		interval:    interval,
		logger:      log,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("voice poller started", zap.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("voice poller stopped")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep executes every due pending entry once.
func (p *Poller) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	due, err := p.queue.Due(ctx, now)
	if err != nil {
		p.logger.Error("due followup read failed", zap.Error(err))
		return
	}

	if depth, err := p.queue.Depth(ctx); err == nil {
		metrics.VoiceQueueDepth.Set(float64(depth))
	}

	for _, f := range due {
		if ctx.Err() != nil {
			return
		}
		if err := p.execute(ctx, f); err != nil {
			metrics.VoiceDispatchTotal.WithLabelValues(string(f.LeadType), "error").Inc()
			p.logger.Error("voice followup failed",
				zap.String("tenant_id", f.TenantID),
				zap.String("call_id", f.CallID),
				zap.Error(err),
			)
			continue
		}
		metrics.VoiceDispatchTotal.WithLabelValues(string(f.LeadType), "ok").Inc()
	}
}

func (p *Poller) execute(ctx context.Context, f *model.ScheduledFollowup) error {
	if err := p.channel.SendSMS(ctx, f.Lead.Phone, smsText(f, p.bookingLink)); err != nil {
		return err
	}

	if f.Kind == model.FollowupCallAndSMS {
		if err := p.channel.TriggerCall(ctx, f.Lead.Phone); err != nil {
			// The SMS went out; log the call failure and finish the entry
			// rather than re-sending the SMS on the next sweep.
			p.logger.Warn("followup call trigger failed",
				zap.String("tenant_id", f.TenantID),
				zap.String("call_id", f.CallID),
				zap.Error(err),
			)
		}
	}

	if err := p.queue.Complete(ctx, f.TenantID, f.CallID); err != nil {
		return err
	}

	p.logger.Info("voice followup executed",
		zap.String("tenant_id", f.TenantID),
		zap.String("call_id", f.CallID),
		zap.String("kind", string(f.Kind)),
	)
	return nil
}

// smsText renders the followup SMS, merging the lead's name and service
// interest with the booking link.
func smsText(f *model.ScheduledFollowup, bookingLink string) string {
	name := f.Lead.Name
	if name == "" {
		name = "there"
	}
	service := f.Lead.ServiceInterest
	if service == "" {
		service = "our services"
	}

	if f.Kind == model.FollowupCallAndSMS {
		return fmt.Sprintf(
			"Hi %s! Thanks for chatting with us about %s. We'll give you a quick call shortly. If you'd rather pick a time yourself, book here: %s",
			name, service, bookingLink,
		)
	}
	return fmt.Sprintf(
		"Hi %s! You spoke with us recently about %s. If you're still interested, you can grab a time that suits you here: %s",
		name, service, bookingLink,
	)
}
