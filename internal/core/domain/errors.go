package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity         = errors.New("quantity must be a positive integer")
	ErrInvalidCapacity         = errors.New("capacity must not be negative")
	ErrInvalidEvent            = errors.New("invalid event")
	ErrInvalidIdempotencyKey   = errors.New("idempotency key too long")
	ErrInsufficientInventory   = errors.New("not enough seats available")
	ErrEventNotFound           = errors.New("event not found")
	ErrCannotCancel            = errors.New("booking cannot be cancelled")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
	ErrNotFound                = errors.New("not found")
	ErrStoreUnavailable        = errors.New("ledger store unavailable")
	// ErrCommitUnknown means the connection failed during commit, so the
	// unit of work may or may not have been applied. It is never retried.
	ErrCommitUnknown           = errors.New("commit outcome unknown")
)

// TransientError marks a store failure that may succeed if the whole unit of
// work is retried: serialization conflicts, deadlocks, lock timeouts and lost
// connections.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
