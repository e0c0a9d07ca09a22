package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

const (
	tracerName         = "github.com/srgjo27/evently/internal/core/services"
	sideEffectsTimeout = 5 * time.Second
)

type Options struct {
	MaxTxAttempts  int
	RetryBaseDelay time.Duration
	Tracer         trace.Tracer
	Now            func() time.Time
}

func (o Options) tracer() trace.Tracer {
	if o.Tracer != nil {
		return o.Tracer
	}
	return otel.Tracer(tracerName)
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

// BookingService reserves and cancels seats. Every call runs inside exactly one
// unit of work against the ledger store; it holds no locks of its own.
type BookingService struct {
	store     ports.LedgerStore
	projector *AnalyticsProjector
	cache     ports.AvailabilityCache
	publisher ports.EventPublisher
	tx        *txRunner
	log       *zap.Logger
	opts      Options
}

func NewBookingService(store ports.LedgerStore, projector *AnalyticsProjector, cache ports.AvailabilityCache, publisher ports.EventPublisher, log *zap.Logger, opts Options) *BookingService {
	return &BookingService{
		store:     store,
		projector: projector,
		cache:     cache,
		publisher: publisher,
		tx:        newTxRunner(store, log, opts.MaxTxAttempts, opts.RetryBaseDelay),
		log:       log,
		opts:      opts,
	}
}

func (s *BookingService) Reserve(ctx context.Context, req ReserveRequest) (ReservationResult, error) {
	if req.Quantity <= 0 {
		return ReservationResult{}, domain.ErrInvalidQuantity
	}
	if !validIdempotencyKey(req.IdempotencyKey) {
		return ReservationResult{}, fmt.Errorf("%w: limit is %d characters", domain.ErrInvalidIdempotencyKey, maxIdempotencyKeyLength)
	}

	ctx, span := s.opts.tracer().Start(ctx, "booking.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.event_id", req.EventID.String()),
		attribute.String("booking.user_id", req.UserID.String()),
		attribute.Int("booking.quantity", req.Quantity),
		attribute.Bool("booking.idempotent", req.IdempotencyKey != ""),
	)

	var result ReservationResult
	var created *domain.Booking

	err := s.tx.run(ctx, "reserve", func(tx ports.LedgerTx) error {
		result, created = ReservationResult{}, nil

		existing, err := resolveIdempotencyKey(ctx, tx, req.IdempotencyKey)
		if err != nil {
			return fmt.Errorf("resolve idempotency key: %w", err)
		}
		if existing != nil {
			result = reusedResult(existing)
			return nil
		}

		inv, err := tx.ReserveSeats(ctx, req.EventID, req.Quantity)
		if err != nil {
			return err
		}

		now := s.opts.now()
		booking := domain.NewConfirmedBooking(req.UserID, req.EventID, req.Quantity, req.IdempotencyKey, now)
		if err := tx.InsertBooking(ctx, booking); err != nil {
			return err
		}

		audit, err := domain.NewBookEvent(booking, now)
		if err != nil {
			return fmt.Errorf("encode book event: %w", err)
		}
		if err := tx.AppendBookingEvent(ctx, audit); err != nil {
			return fmt.Errorf("append book event: %w", err)
		}

		if err := s.projector.Refresh(ctx, tx, booking.EventID); err != nil {
			return fmt.Errorf("refresh analytics: %w", err)
		}

		result = ReservationResult{
			Outcome:        OutcomeConfirmed,
			BookingID:      booking.ID,
			Status:         booking.Status,
			SeatsAvailable: inv.SeatsAvailable,
		}
		created = booking
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInsufficientInventory):
		span.SetAttributes(attribute.String("booking.outcome", string(OutcomeInsufficientInventory)))
		return ReservationResult{Outcome: OutcomeInsufficientInventory}, nil
	case errors.Is(err, domain.ErrEventNotFound):
		span.SetAttributes(attribute.String("booking.outcome", string(OutcomeEventNotFound)))
		return ReservationResult{Outcome: OutcomeEventNotFound}, nil
	case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
		// A concurrent submission with the same key committed first; our unit
		// of work was rolled back, so resolve the key again.
		return s.replay(ctx, req.IdempotencyKey)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve failed")
		s.log.Error("Reservation failed",
			zap.String("event_id", req.EventID.String()),
			zap.String("user_id", req.UserID.String()),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return ReservationResult{}, err
	}

	span.SetAttributes(attribute.String("booking.outcome", string(result.Outcome)))
	span.SetStatus(codes.Ok, "")

	if created != nil {
		s.log.Info("Booking confirmed",
			zap.String("booking_id", created.ID.String()),
			zap.String("event_id", created.EventID.String()),
			zap.Int("quantity", created.Quantity),
			zap.Int("seats_available", result.SeatsAvailable))
		s.afterCommit(ctx, *created, s.publishConfirmed)
	} else {
		s.log.Info("Idempotent replay",
			zap.String("booking_id", result.BookingID.String()),
			zap.String("idempotency_key", req.IdempotencyKey))
	}

	return result, nil
}

func (s *BookingService) replay(ctx context.Context, key string) (ReservationResult, error) {
	var result ReservationResult
	err := s.tx.run(ctx, "reserve.replay", func(tx ports.LedgerTx) error {
		existing, err := resolveIdempotencyKey(ctx, tx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("replay idempotency key %q: %w", key, domain.ErrDuplicateIdempotencyKey)
		}
		result = reusedResult(existing)
		return nil
	})
	if err != nil {
		return ReservationResult{}, err
	}
	s.log.Info("Idempotent replay after concurrent insert",
		zap.String("booking_id", result.BookingID.String()),
		zap.String("idempotency_key", key))
	return result, nil
}

func (s *BookingService) Cancel(ctx context.Context, bookingID uuid.UUID) (CancellationResult, error) {
	ctx, span := s.opts.tracer().Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID.String()))

	var cancelled *domain.Booking

	err := s.tx.run(ctx, "cancel", func(tx ports.LedgerTx) error {
		cancelled = nil

		booking, err := tx.CancelBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if _, err := tx.ReleaseSeats(ctx, booking.EventID, booking.Quantity); err != nil {
			return fmt.Errorf("release seats: %w", err)
		}

		audit, err := domain.NewCancelEvent(booking, s.opts.now())
		if err != nil {
			return fmt.Errorf("encode cancel event: %w", err)
		}
		if err := tx.AppendBookingEvent(ctx, audit); err != nil {
			return fmt.Errorf("append cancel event: %w", err)
		}

		if err := s.projector.Refresh(ctx, tx, booking.EventID); err != nil {
			return fmt.Errorf("refresh analytics: %w", err)
		}

		cancelled = booking
		return nil
	})

	if errors.Is(err, domain.ErrCannotCancel) {
		span.SetAttributes(attribute.String("booking.outcome", string(OutcomeCannotCancel)))
		return CancellationResult{Outcome: OutcomeCannotCancel, BookingID: bookingID}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		s.log.Error("Cancellation failed", zap.String("booking_id", bookingID.String()), zap.Error(err))
		return CancellationResult{}, err
	}

	span.SetStatus(codes.Ok, "")
	s.log.Info("Booking cancelled",
		zap.String("booking_id", cancelled.ID.String()),
		zap.String("event_id", cancelled.EventID.String()),
		zap.Int("released_quantity", cancelled.Quantity))
	s.afterCommit(ctx, *cancelled, s.publishCancelled)

	return CancellationResult{
		Outcome:          OutcomeCancelled,
		BookingID:        cancelled.ID,
		EventID:          cancelled.EventID,
		ReleasedQuantity: cancelled.Quantity,
	}, nil
}

func (s *BookingService) ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	bookings, err := s.store.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings for user %s: %w", userID, err)
	}
	return bookings, nil
}

// afterCommit runs the side effects of a committed mutation. They are best
// effort: a failure is logged and never changes the outcome returned.
func (s *BookingService) afterCommit(ctx context.Context, booking domain.Booking, publish func(context.Context, domain.Booking) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectsTimeout)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, booking.EventID); err != nil {
			s.log.Warn("Failed to invalidate availability cache",
				zap.String("event_id", booking.EventID.String()),
				zap.Error(err))
		}
	}
	if err := publish(ctx, booking); err != nil {
		s.log.Warn("Failed to publish booking event",
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(booking.Status)),
			zap.Error(err))
	}
}

func (s *BookingService) publishConfirmed(ctx context.Context, b domain.Booking) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishBookingConfirmed(ctx, b)
}

func (s *BookingService) publishCancelled(ctx context.Context, b domain.Booking) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishBookingCancelled(ctx, b)
}
