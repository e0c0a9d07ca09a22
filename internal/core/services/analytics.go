package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

type RefreshMode string

const (
	// RefreshPerEvent recomputes only the affected event's row inside the
	// mutating unit of work.
	RefreshPerEvent RefreshMode = "event"
	// RefreshFull recomputes every row on every mutation, so all mutating
	// traffic serializes on the projection.
	RefreshFull RefreshMode = "full"
)

func ParseRefreshMode(s string) (RefreshMode, error) {
	switch RefreshMode(s) {
	case "", RefreshPerEvent:
		return RefreshPerEvent, nil
	case RefreshFull:
		return RefreshFull, nil
	}
	return "", fmt.Errorf("unknown analytics refresh mode %q (supported: event, full)", s)
}

// AnalyticsProjector keeps the per-event booking aggregate in step with the
// ledger. Refresh runs inside the caller's unit of work, so the projection
// commits together with the mutation that changed it.
type AnalyticsProjector struct {
	store ports.LedgerStore
	cache ports.AvailabilityCache
	mode  RefreshMode
	tx    *txRunner
	log   *zap.Logger
}

func NewAnalyticsProjector(store ports.LedgerStore, cache ports.AvailabilityCache, mode RefreshMode, log *zap.Logger, opts Options) *AnalyticsProjector {
	if mode == "" {
		mode = RefreshPerEvent
	}
	return &AnalyticsProjector{
		store: store,
		cache: cache,
		mode:  mode,
		tx:    newTxRunner(store, log, opts.MaxTxAttempts, opts.RetryBaseDelay),
		log:   log,
	}
}

func (p *AnalyticsProjector) Mode() RefreshMode {
	return p.mode
}

func (p *AnalyticsProjector) Refresh(ctx context.Context, tx ports.LedgerTx, eventID uuid.UUID) error {
	if p.mode == RefreshFull {
		return tx.RefreshAllStats(ctx)
	}
	return tx.RefreshEventStats(ctx, eventID)
}

// Snapshot returns every event's aggregate ordered by total booked, highest
// first. Cached copies are dropped after each committed mutation.
func (p *AnalyticsProjector) Snapshot(ctx context.Context) ([]domain.EventStats, error) {
	if p.cache != nil {
		rows, err := p.cache.GetSnapshot(ctx)
		if err != nil {
			p.log.Warn("Analytics cache read failed", zap.Error(err))
		} else if rows != nil {
			return rows, nil
		}
	}

	rows, err := p.store.ListEventStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list event stats: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.SetSnapshot(ctx, rows); err != nil {
			p.log.Warn("Analytics cache write failed", zap.Error(err))
		}
	}
	return rows, nil
}

// Rebuild recomputes every row from the ledger.
func (p *AnalyticsProjector) Rebuild(ctx context.Context) error {
	err := p.tx.run(ctx, "analytics.rebuild", func(tx ports.LedgerTx) error {
		return tx.RefreshAllStats(ctx)
	})
	if err != nil {
		return fmt.Errorf("rebuild analytics: %w", err)
	}
	if p.cache != nil {
		if err := p.cache.Invalidate(ctx); err != nil {
			p.log.Warn("Failed to invalidate analytics cache", zap.Error(err))
		}
	}
	return nil
}

// RefreshEvent recomputes one event's row in its own unit of work.
func (p *AnalyticsProjector) RefreshEvent(ctx context.Context, eventID uuid.UUID) error {
	err := p.tx.run(ctx, "analytics.refresh_event", func(tx ports.LedgerTx) error {
		return tx.RefreshEventStats(ctx, eventID)
	})
	if err != nil {
		return fmt.Errorf("refresh analytics for event %s: %w", eventID, err)
	}
	if p.cache != nil {
		if err := p.cache.Invalidate(ctx, eventID); err != nil {
			p.log.Warn("Failed to invalidate analytics cache", zap.Error(err))
		}
	}
	return nil
}

func (p *AnalyticsProjector) RunPeriodicRebuild(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		p.log.Info("Periodic analytics rebuild disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.log.Info("Analytics rebuild worker started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Analytics rebuild worker stopped")
			return
		case <-ticker.C:
			started := time.Now()
			if err := p.Rebuild(ctx); err != nil {
				p.log.Error("Periodic analytics rebuild failed", zap.Error(err))
				continue
			}
			p.log.Debug("Analytics rebuilt", zap.Duration("took", time.Since(started)))
		}
	}
}
