package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/fictshop/payment-webhooks/internal/application"
)

// AuditPruner periodically deletes notification audit rows older than the
// configured retention window. The processed-event ledger is never touched;
// only the raw-payload audit trail ages out.
type AuditPruner struct {
	audit     application.AuditRepository
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
}

func NewAuditPruner(
	audit application.AuditRepository,
	interval time.Duration,
	retention time.Duration,
	logger *slog.Logger,
) *AuditPruner {
	return &AuditPruner{
		audit:     audit,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

func (p *AuditPruner) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("starting audit pruner", "interval", p.interval, "retention", p.retention)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping audit pruner")
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

// RunOnce executes a single prune cycle.
func (p *AuditPruner) RunOnce(ctx context.Context) {
	p.run(ctx)
}

func (p *AuditPruner) run(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	deleted, err := p.audit.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to prune notification audit", "error", err)
		return
	}

	if deleted > 0 {
		p.logger.Info("pruned notification audit rows", "deleted", deleted, "cutoff", cutoff)
	}
}
