package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/srgjo27/evently/internal/core/domain"
)

// LedgerTx is a mock type for the ports.LedgerTx type.
type LedgerTx struct {
	mock.Mock
}

func (_m *LedgerTx) FindBookingByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	ret := _m.Called(ctx, key)
	return booking(ret, 0), ret.Error(1)
}

func (_m *LedgerTx) ReadInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	ret := _m.Called(ctx, eventID)
	return inventory(ret, 0), ret.Error(1)
}

func (_m *LedgerTx) ReserveSeats(ctx context.Context, eventID uuid.UUID, quantity int) (*domain.Inventory, error) {
	ret := _m.Called(ctx, eventID, quantity)
	return inventory(ret, 0), ret.Error(1)
}

func (_m *LedgerTx) ReleaseSeats(ctx context.Context, eventID uuid.UUID, quantity int) (*domain.Inventory, error) {
	ret := _m.Called(ctx, eventID, quantity)
	return inventory(ret, 0), ret.Error(1)
}

func (_m *LedgerTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	return _m.Called(ctx, b).Error(0)
}

func (_m *LedgerTx) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	ret := _m.Called(ctx, bookingID)
	return booking(ret, 0), ret.Error(1)
}

func (_m *LedgerTx) AppendBookingEvent(ctx context.Context, event *domain.BookingEvent) error {
	return _m.Called(ctx, event).Error(0)
}

func (_m *LedgerTx) LedgerTotals(ctx context.Context, eventID uuid.UUID) (domain.LedgerTotals, error) {
	ret := _m.Called(ctx, eventID)

	var r0 domain.LedgerTotals
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(domain.LedgerTotals)
	}
	return r0, ret.Error(1)
}

func (_m *LedgerTx) RefreshEventStats(ctx context.Context, eventID uuid.UUID) error {
	return _m.Called(ctx, eventID).Error(0)
}

func (_m *LedgerTx) RefreshAllStats(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}

func booking(ret mock.Arguments, i int) *domain.Booking {
	if ret.Get(i) == nil {
		return nil
	}
	return ret.Get(i).(*domain.Booking)
}

func inventory(ret mock.Arguments, i int) *domain.Inventory {
	if ret.Get(i) == nil {
		return nil
	}
	return ret.Get(i).(*domain.Inventory)
}

// NewLedgerTx creates a new instance of LedgerTx. It also registers a cleanup
// function to assert the mocks expectations.
func NewLedgerTx(t testingT) *LedgerTx {
	m := &LedgerTx{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
