package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/srgjo27/evently/internal/core/domain"
)

// AvailabilityCache is a mock type for the ports.AvailabilityCache type.
type AvailabilityCache struct {
	mock.Mock
}

func (_m *AvailabilityCache) GetInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	ret := _m.Called(ctx, eventID)
	return inventory(ret, 0), ret.Error(1)
}

func (_m *AvailabilityCache) SetInventory(ctx context.Context, inv *domain.Inventory) error {
	return _m.Called(ctx, inv).Error(0)
}

func (_m *AvailabilityCache) GetSnapshot(ctx context.Context) ([]domain.EventStats, error) {
	ret := _m.Called(ctx)

	var r0 []domain.EventStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.EventStats)
	}
	return r0, ret.Error(1)
}

func (_m *AvailabilityCache) SetSnapshot(ctx context.Context, rows []domain.EventStats) error {
	return _m.Called(ctx, rows).Error(0)
}

func (_m *AvailabilityCache) Invalidate(ctx context.Context, eventIDs ...uuid.UUID) error {
	args := []interface{}{ctx}
	for _, id := range eventIDs {
		args = append(args, id)
	}
	return _m.Called(args...).Error(0)
}

func NewAvailabilityCache(t testingT) *AvailabilityCache {
	m := &AvailabilityCache{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// EventPublisher is a mock type for the ports.EventPublisher type.
type EventPublisher struct {
	mock.Mock
}

func (_m *EventPublisher) PublishBookingConfirmed(ctx context.Context, b domain.Booking) error {
	return _m.Called(ctx, b).Error(0)
}

func (_m *EventPublisher) PublishBookingCancelled(ctx context.Context, b domain.Booking) error {
	return _m.Called(ctx, b).Error(0)
}

func NewEventPublisher(t testingT) *EventPublisher {
	m := &EventPublisher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// EventRepository is a mock type for the ports.EventRepository type.
type EventRepository struct {
	mock.Mock
}

func (_m *EventRepository) CreateEvent(ctx context.Context, event *domain.Event) error {
	return _m.Called(ctx, event).Error(0)
}

func (_m *EventRepository) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	ret := _m.Called(ctx, eventID)

	var r0 *domain.Event
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Event)
	}
	return r0, ret.Error(1)
}

func (_m *EventRepository) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	ret := _m.Called(ctx, limit, offset)

	var r0 []domain.Event
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.Event)
	}
	return r0, ret.Error(1)
}

func NewEventRepository(t testingT) *EventRepository {
	m := &EventRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
