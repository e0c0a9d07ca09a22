package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

const (
	defaultEventPageSize = 25
	maxEventPageSize     = 100
)

type CreateEventRequest struct {
	Name        string
	Venue       *string
	Description *string
	StartTime   time.Time
	EndTime     *time.Time
	Capacity    int
}

// EventService is the thin event catalogue around the ledger: creating an
// event also creates its inventory row.
type EventService struct {
	events    ports.EventRepository
	store     ports.LedgerStore
	projector *AnalyticsProjector
	cache     ports.AvailabilityCache
	log       *zap.Logger
}

func NewEventService(events ports.EventRepository, store ports.LedgerStore, projector *AnalyticsProjector, cache ports.AvailabilityCache, log *zap.Logger) *EventService {
	return &EventService{
		events:    events,
		store:     store,
		projector: projector,
		cache:     cache,
		log:       log,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (*domain.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidEvent)
	}
	if req.Capacity < 0 {
		return nil, domain.ErrInvalidCapacity
	}
	if req.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start_time is required", domain.ErrInvalidEvent)
	}
	if req.EndTime != nil && req.EndTime.Before(req.StartTime) {
		return nil, fmt.Errorf("%w: end_time is before start_time", domain.ErrInvalidEvent)
	}

	event := &domain.Event{
		ID:             uuid.New(),
		Name:           name,
		Venue:          req.Venue,
		Description:    req.Description,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime,
		Capacity:       req.Capacity,
		SeatsAvailable: req.Capacity,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	// The event has no bookings yet; seed its analytics row so the snapshot
	// lists it straight away.
	if err := s.projector.RefreshEvent(ctx, event.ID); err != nil {
		s.log.Warn("Failed to seed analytics row", zap.String("event_id", event.ID.String()), zap.Error(err))
	}

	s.log.Info("Event created",
		zap.String("event_id", event.ID.String()),
		zap.String("name", event.Name),
		zap.Int("capacity", event.Capacity))
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}
	if offset < 0 {
		offset = 0
	}
	events, err := s.events.ListEvents(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Availability reads the inventory counters through the cache.
func (s *EventService) Availability(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	if s.cache != nil {
		inv, err := s.cache.GetInventory(ctx, eventID)
		if err != nil {
			s.log.Warn("Inventory cache read failed", zap.String("event_id", eventID.String()), zap.Error(err))
		} else if inv != nil {
			return inv, nil
		}
	}

	inv, err := s.store.GetInventory(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory for event %s: %w", eventID, err)
	}

	if s.cache != nil {
		if err := s.cache.SetInventory(ctx, inv); err != nil {
			s.log.Warn("Inventory cache write failed", zap.String("event_id", eventID.String()), zap.Error(err))
		}
	}
	return inv, nil
}
