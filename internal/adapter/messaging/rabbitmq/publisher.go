// Package rabbitmq publishes booking lifecycle messages after their unit of
// work has committed. Delivery is best effort: callers log failures and carry
// on, since the ledger is the source of truth.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/core/domain"
)

const (
	RoutingBookingConfirmed = "booking.confirmed"
	RoutingBookingCancelled = "booking.cancelled"
)

// BookingMessage is the body of every booking message.
type BookingMessage struct {
	BookingID  uuid.UUID `json:"booking_id"`
	UserID     uuid.UUID `json:"user_id"`
	EventID    uuid.UUID `json:"event_id"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
	log  *zap.Logger
	now  func() time.Time
}

// Dial connects to the broker and declares both durable queues.
func Dial(url string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	p, err := newPublisher(ch, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, log *zap.Logger) (*Publisher, error) {
	for _, queue := range []string{RoutingBookingConfirmed, RoutingBookingCancelled} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("rabbitmq declare %s: %w", queue, err)
		}
	}
	return &Publisher{ch: ch, log: log, now: time.Now}, nil
}

func (p *Publisher) PublishBookingConfirmed(ctx context.Context, booking domain.Booking) error {
	return p.publish(ctx, RoutingBookingConfirmed, booking)
}

func (p *Publisher) PublishBookingCancelled(ctx context.Context, booking domain.Booking) error {
	return p.publish(ctx, RoutingBookingCancelled, booking)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, b domain.Booking) error {
	body, err := json.Marshal(BookingMessage{
		BookingID:  b.ID,
		UserID:     b.UserID,
		EventID:    b.EventID,
		Quantity:   b.Quantity,
		Status:     string(b.Status),
		OccurredAt: b.UpdatedAt.UTC(),
	})
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    b.ID.String() + ":" + string(b.Status),
		Timestamp:    p.now().UTC(),
		Body:         body,
	}

	// Channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", routingKey, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", routingKey, err)
	}

	p.log.Debug("Booking message published",
		zap.String("routing_key", routingKey),
		zap.String("booking_id", b.ID.String()))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
