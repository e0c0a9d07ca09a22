package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// LedgerStore is a mock type for the ports.LedgerStore type.
type LedgerStore struct {
	mock.Mock
}

// WithinTx accepts either an error or a func(context.Context, func(ports.LedgerTx) error) error
// as its return value, so a test can run the unit of work against a mocked transaction.
func (_m *LedgerStore) WithinTx(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	ret := _m.Called(ctx, fn)

	if rf, ok := ret.Get(0).(func(context.Context, func(ports.LedgerTx) error) error); ok {
		return rf(ctx, fn)
	}
	return ret.Error(0)
}

func (_m *LedgerStore) GetInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	ret := _m.Called(ctx, eventID)

	var r0 *domain.Inventory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Inventory)
	}
	return r0, ret.Error(1)
}

func (_m *LedgerStore) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	ret := _m.Called(ctx, userID)

	var r0 []domain.Booking
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.Booking)
	}
	return r0, ret.Error(1)
}

func (_m *LedgerStore) ListEventStats(ctx context.Context) ([]domain.EventStats, error) {
	ret := _m.Called(ctx)

	var r0 []domain.EventStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.EventStats)
	}
	return r0, ret.Error(1)
}

// NewLedgerStore creates a new instance of LedgerStore. It also registers a
// cleanup function to assert the mocks expectations.
func NewLedgerStore(t testingT) *LedgerStore {
	m := &LedgerStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
