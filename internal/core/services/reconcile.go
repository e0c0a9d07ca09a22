package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

// ReconcileReport compares the mutable inventory row of an event against a
// replay of its audit ledger.
type ReconcileReport struct {
	EventID           uuid.UUID
	Capacity          int
	SeatsAvailable    int
	SeatsReserved     int
	Version           int64
	LedgerBooked      int
	LedgerCancelled   int
	LedgerOutstanding int
	Consistent        bool
}

type LedgerAuditor struct {
	events ports.EventRepository
	tx     *txRunner
	log    *zap.Logger
}

func NewLedgerAuditor(events ports.EventRepository, store ports.LedgerStore, log *zap.Logger, opts Options) *LedgerAuditor {
	return &LedgerAuditor{
		events: events,
		tx:     newTxRunner(store, log, opts.MaxTxAttempts, opts.RetryBaseDelay),
		log:    log,
	}
}

func (a *LedgerAuditor) Reconcile(ctx context.Context, eventID uuid.UUID) (ReconcileReport, error) {
	event, err := a.events.GetEvent(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return ReconcileReport{}, domain.ErrEventNotFound
	}
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("get event %s: %w", eventID, err)
	}

	var report ReconcileReport
	err = a.tx.run(ctx, "reconcile", func(tx ports.LedgerTx) error {
		inv, err := tx.ReadInventory(ctx, eventID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrEventNotFound
		}
		if err != nil {
			return err
		}
		totals, err := tx.LedgerTotals(ctx, eventID)
		if err != nil {
			return err
		}
		report = buildReconcileReport(event.Capacity, *inv, totals)
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}

	if !report.Consistent {
		a.log.Error("Inventory diverges from audit ledger",
			zap.String("event_id", eventID.String()),
			zap.Int("capacity", report.Capacity),
			zap.Int("seats_available", report.SeatsAvailable),
			zap.Int("seats_reserved", report.SeatsReserved),
			zap.Int("ledger_outstanding", report.LedgerOutstanding))
	}
	return report, nil
}

func buildReconcileReport(capacity int, inv domain.Inventory, totals domain.LedgerTotals) ReconcileReport {
	outstanding := totals.Outstanding()
	return ReconcileReport{
		EventID:           inv.EventID,
		Capacity:          capacity,
		SeatsAvailable:    inv.SeatsAvailable,
		SeatsReserved:     inv.SeatsReserved,
		Version:           inv.Version,
		LedgerBooked:      totals.Booked,
		LedgerCancelled:   totals.Cancelled,
		LedgerOutstanding: outstanding,
		Consistent: inv.SeatsAvailable >= 0 &&
			inv.SeatsReserved >= 0 &&
			inv.Capacity() == capacity &&
			inv.SeatsReserved == outstanding,
	}
}
