package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports/mocks"
	"github.com/srgjo27/evently/internal/core/services"
)

func TestReconcile_ConsistentAfterMixedTraffic(t *testing.T) {
	f := newFixture(t, 20)

	a := f.reserve(t, 5, "")
	f.reserve(t, 3, "")
	f.reserve(t, 30, "")
	_, err := f.bookings.Cancel(context.Background(), a.BookingID)
	require.NoError(t, err)

	report, err := f.auditor.Reconcile(context.Background(), f.eventID)
	require.NoError(t, err)

	assert.True(t, report.Consistent)
	assert.Equal(t, 20, report.Capacity)
	assert.Equal(t, 17, report.SeatsAvailable)
	assert.Equal(t, 3, report.SeatsReserved)
	assert.Equal(t, 8, report.LedgerBooked)
	assert.Equal(t, 5, report.LedgerCancelled)
	assert.Equal(t, 3, report.LedgerOutstanding)
}

func TestReconcile_DetectsDivergence(t *testing.T) {
	events := mocks.NewEventRepository(t)
	store := mocks.NewLedgerStore(t)
	tx := mocks.NewLedgerTx(t)
	eventID := uuid.New()

	events.On("GetEvent", mock.Anything, eventID).Return(&domain.Event{ID: eventID, Capacity: 10}, nil).Once()
	store.On("WithinTx", mock.Anything, mock.Anything).Return(runTx(tx)).Once()
	tx.On("ReadInventory", mock.Anything, eventID).Return(&domain.Inventory{EventID: eventID, SeatsAvailable: 6, SeatsReserved: 4}, nil).Once()
	tx.On("LedgerTotals", mock.Anything, eventID).Return(domain.LedgerTotals{Booked: 7, Cancelled: 2}, nil).Once()

	auditor := services.NewLedgerAuditor(events, store, zap.NewNop(), testOpts)
	report, err := auditor.Reconcile(context.Background(), eventID)

	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, 5, report.LedgerOutstanding)
}

func TestReconcile_UnknownEvent(t *testing.T) {
	events := mocks.NewEventRepository(t)
	eventID := uuid.New()
	events.On("GetEvent", mock.Anything, eventID).Return(nil, domain.ErrNotFound).Once()

	auditor := services.NewLedgerAuditor(events, mocks.NewLedgerStore(t), zap.NewNop(), testOpts)
	_, err := auditor.Reconcile(context.Background(), eventID)

	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}
