package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/evently/internal/core/domain"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateEvent writes the event and its inventory row in one transaction.
func (r *EventRepository) CreateEvent(ctx context.Context, event *domain.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}

	defer tx.Rollback()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	queryEvent := `
	INSERT INTO events (id, name, venue, description, start_time, end_time, capacity, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.ExecContext(ctx, queryEvent,
		event.ID,
		event.Name,
		event.Venue,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.Capacity,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", classify(err))
	}

	queryInventory := `
	INSERT INTO event_inventory (event_id, seats_available, seats_reserved, version)
	VALUES ($1, $2, 0, 0)
	`

	if _, err = tx.ExecContext(ctx, queryInventory, event.ID, event.Capacity); err != nil {
		return fmt.Errorf("failed to insert inventory: %w", classify(err))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}

	event.SeatsAvailable = event.Capacity
	return nil
}

const eventSelect = `
	SELECT e.id, e.name, e.venue, e.description, e.start_time, e.end_time, e.capacity, e.created_at,
		COALESCE(i.seats_available, 0)
	FROM events e
	LEFT JOIN event_inventory i ON i.event_id = e.id
	`

func (r *EventRepository) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	event, err := scanEvent(r.db.QueryRowContext(ctx, eventSelect+`WHERE e.id = $1`, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}

		return nil, classify(err)
	}

	return event, nil
}

func (r *EventRepository) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, eventSelect+`ORDER BY e.start_time, e.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, classify(err)
	}

	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}

		events = append(events, *event)
	}

	return events, classify(rows.Err())
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var venue, description sql.NullString
	var endTime sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.Name,
		&venue,
		&description,
		&e.StartTime,
		&endTime,
		&e.Capacity,
		&e.CreatedAt,
		&e.SeatsAvailable,
	)
	if err != nil {
		return nil, err
	}

	if venue.Valid {
		e.Venue = &venue.String
	}

	if description.Valid {
		e.Description = &description.String
	}

	if endTime.Valid {
		e.EndTime = &endTime.Time
	}

	return &e, nil
}
