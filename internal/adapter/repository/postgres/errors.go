package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/srgjo27/evently/internal/core/domain"
)

const idempotencyKeyConstraint = "bookings_idempotency_key_key"

var transientCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// classify maps driver failures onto the domain taxonomy. Errors it does not
// recognise are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isConnectionFailure(err) {
		return domain.Transient(err)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	if pqErr.Code == "23505" && pqErr.Constraint == idempotencyKeyConstraint {
		return domain.ErrDuplicateIdempotencyKey
	}
	if transientCodes[pqErr.Code] {
		return domain.Transient(err)
	}
	return err
}

// classifyCommit is classify for COMMIT. A connection lost while committing
// leaves the outcome unknown, so it must not be retried like a statement
// failure.
func classifyCommit(err error) error {
	if err == nil {
		return nil
	}
	if isConnectionFailure(err) {
		return fmt.Errorf("%w: %v", domain.ErrCommitUnknown, err)
	}
	return classify(err)
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code.Class() == "08" || pqErr.Code == "57P01"
}
