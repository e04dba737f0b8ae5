package service

import (
	"context"
	"log"
	"time"

	"github.com/asistencia-qr/server/internal/asistencia/store"
)

// QRPruner periodically deletes daily QR rows older than a configurable
// retention period.  It runs as a background goroutine and is safe to
// stop via its context or the Stop method.
//
// A retention of 0 disables pruning entirely: the core never deletes
// attendance data, and QR history only goes when an operator opts in.
type QRPruner struct {
	qrStore   store.QRStore
	retention time.Duration
	interval  time.Duration
	loc       *time.Location
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewQRPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of QR history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

// NewQRPruner creates a pruner but does not start it.
// Call Start to begin the background loop.
func NewQRPruner(qs store.QRStore, cfg PrunerConfig, loc *time.Location, logger *log.Logger) *QRPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &QRPruner{
		qrStore:   qs,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		loc:       loc,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background pruning loop.  It runs an immediate prune
// on startup, then repeats on the configured interval.  The loop exits
// when ctx is cancelled or Stop is called.
func (p *QRPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("qr pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("qr pruner started (retention=%dd, interval=%dh)",
		int(p.retention.Hours()/24), int(p.interval.Hours()))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *QRPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *QRPruner) loop(ctx context.Context) {
	defer close(p.done)

	// Run immediately on startup to clean up any backlog.
	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *QRPruner) prune(ctx context.Context) {
	// Dates are org-local ISO strings, so the cutoff is too.
	cutoff := time.Now().In(p.loc).Add(-p.retention).Format("2006-01-02")
	deleted, err := p.qrStore.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Printf("qr prune error: %v", err)
		return
	}
	if deleted > 0 {
		p.logger.Printf("qr prune: deleted %d rows older than %s", deleted, cutoff)
	}
}
