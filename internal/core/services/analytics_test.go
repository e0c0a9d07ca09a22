package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/adapter/repository/memory"
	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports/mocks"
	"github.com/srgjo27/evently/internal/core/services"
)

func int64Ptr(v int64) *int64 { return &v }

func TestParseRefreshMode(t *testing.T) {
	tests := []struct {
		in      string
		want    services.RefreshMode
		wantErr bool
	}{
		{in: "", want: services.RefreshPerEvent},
		{in: "event", want: services.RefreshPerEvent},
		{in: "full", want: services.RefreshFull},
		{in: "nightly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := services.ParseRefreshMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshot_CacheHitSkipsStore(t *testing.T) {
	store := mocks.NewLedgerStore(t)
	cache := mocks.NewAvailabilityCache(t)
	rows := []domain.EventStats{{EventID: uuid.New(), Name: "cached", TotalBooked: int64Ptr(3)}}

	cache.On("GetSnapshot", mock.Anything).Return(rows, nil).Once()

	p := services.NewAnalyticsProjector(store, cache, services.RefreshPerEvent, zap.NewNop(), testOpts)
	got, err := p.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestSnapshot_CacheMissReadsStoreAndFills(t *testing.T) {
	store := mocks.NewLedgerStore(t)
	cache := mocks.NewAvailabilityCache(t)
	rows := []domain.EventStats{{EventID: uuid.New(), Name: "fresh", TotalBooked: int64Ptr(7)}}

	cache.On("GetSnapshot", mock.Anything).Return(nil, nil).Once()
	store.On("ListEventStats", mock.Anything).Return(rows, nil).Once()
	cache.On("SetSnapshot", mock.Anything, rows).Return(nil).Once()

	p := services.NewAnalyticsProjector(store, cache, services.RefreshPerEvent, zap.NewNop(), testOpts)
	got, err := p.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestSnapshot_CacheFailureFallsBackToStore(t *testing.T) {
	store := mocks.NewLedgerStore(t)
	cache := mocks.NewAvailabilityCache(t)
	rows := []domain.EventStats{}

	cache.On("GetSnapshot", mock.Anything).Return(nil, errors.New("connection refused")).Once()
	store.On("ListEventStats", mock.Anything).Return(rows, nil).Once()
	cache.On("SetSnapshot", mock.Anything, rows).Return(errors.New("connection refused")).Once()

	p := services.NewAnalyticsProjector(store, cache, services.RefreshPerEvent, zap.NewNop(), testOpts)
	got, err := p.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshot_StoreError(t *testing.T) {
	store := mocks.NewLedgerStore(t)
	store.On("ListEventStats", mock.Anything).Return(nil, errors.New("boom")).Once()

	p := services.NewAnalyticsProjector(store, nil, services.RefreshPerEvent, zap.NewNop(), testOpts)
	_, err := p.Snapshot(context.Background())

	assert.Error(t, err)
}

func TestRefresh_ModeSelectsScope(t *testing.T) {
	eventID := uuid.New()

	t.Run("per event", func(t *testing.T) {
		tx := mocks.NewLedgerTx(t)
		tx.On("RefreshEventStats", mock.Anything, eventID).Return(nil).Once()

		p := services.NewAnalyticsProjector(nil, nil, services.RefreshPerEvent, zap.NewNop(), testOpts)
		require.NoError(t, p.Refresh(context.Background(), tx, eventID))
	})

	t.Run("full", func(t *testing.T) {
		tx := mocks.NewLedgerTx(t)
		tx.On("RefreshAllStats", mock.Anything).Return(nil).Once()

		p := services.NewAnalyticsProjector(nil, nil, services.RefreshFull, zap.NewNop(), testOpts)
		require.NoError(t, p.Refresh(context.Background(), tx, eventID))
	})
}

func TestRebuild_RecomputesAndInvalidates(t *testing.T) {
	store := mocks.NewLedgerStore(t)
	tx := mocks.NewLedgerTx(t)
	cache := mocks.NewAvailabilityCache(t)

	store.On("WithinTx", mock.Anything, mock.Anything).Return(runTx(tx)).Once()
	tx.On("RefreshAllStats", mock.Anything).Return(nil).Once()
	cache.On("Invalidate", mock.Anything).Return(nil).Once()

	p := services.NewAnalyticsProjector(store, cache, services.RefreshPerEvent, zap.NewNop(), testOpts)
	require.NoError(t, p.Rebuild(context.Background()))
}

func TestAnalytics_TracksBookingsAndCancellations(t *testing.T) {
	f := newFixture(t, 10)

	a := f.reserve(t, 4, "")
	f.reserve(t, 2, "")
	_, err := f.bookings.Cancel(context.Background(), a.BookingID)
	require.NoError(t, err)

	rows, err := f.projector.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].TotalBooked)
	assert.Equal(t, int64(2), *rows[0].TotalBooked)
	require.NotNil(t, rows[0].Utilization)
	assert.InDelta(t, 0.2, *rows[0].Utilization, 1e-9)
}

func TestAnalytics_FullModeRefreshesEveryEvent(t *testing.T) {
	log := zap.NewNop()
	store := memory.NewStore()
	ctx := context.Background()

	first := &domain.Event{Name: "A", StartTime: time.Now(), Capacity: 10}
	second := &domain.Event{Name: "B", StartTime: time.Now(), Capacity: 0}
	require.NoError(t, store.CreateEvent(ctx, first))
	require.NoError(t, store.CreateEvent(ctx, second))

	projector := services.NewAnalyticsProjector(store, nil, services.RefreshFull, log, testOpts)
	svc := services.NewBookingService(store, projector, nil, nil, log, testOpts)

	res, err := svc.Reserve(ctx, services.ReserveRequest{UserID: uuid.New(), EventID: first.ID, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, services.OutcomeConfirmed, res.Outcome)

	rows, err := projector.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].EventID)
	assert.Equal(t, int64(5), *rows[0].TotalBooked)
	assert.Equal(t, second.ID, rows[1].EventID)
	assert.Nil(t, rows[1].Utilization)
}

func TestRunPeriodicRebuild_HealsMissingRows(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Created without going through the event service, so no row is seeded.
	require.NoError(t, store.CreateEvent(ctx, &domain.Event{Name: "Orphan", StartTime: time.Now(), Capacity: 4}))

	p := services.NewAnalyticsProjector(store, nil, services.RefreshPerEvent, zap.NewNop(), testOpts)

	done := make(chan struct{})
	go func() {
		p.RunPeriodicRebuild(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		rows, err := store.ListEventStats(context.Background())
		return err == nil && len(rows) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rebuild worker did not stop after cancellation")
	}
}

func TestRunPeriodicRebuild_DisabledReturnsImmediately(t *testing.T) {
	p := services.NewAnalyticsProjector(mocks.NewLedgerStore(t), nil, services.RefreshPerEvent, zap.NewNop(), testOpts)
	p.RunPeriodicRebuild(context.Background(), 0)
}
