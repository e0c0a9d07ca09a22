package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

const (
	defaultMaxTxAttempts  = 3
	defaultRetryBaseDelay = 25 * time.Millisecond
	maxRetryDelay         = 500 * time.Millisecond
)

// txRunner executes a unit of work and retries the whole of it on transient
// store failures. Business failures are returned on the first attempt.
type txRunner struct {
	store       ports.LedgerStore
	log         *zap.Logger
	maxAttempts int
	baseDelay   time.Duration
}

func newTxRunner(store ports.LedgerStore, log *zap.Logger, maxAttempts int, baseDelay time.Duration) *txRunner {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxTxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}
	return &txRunner{store: store, log: log, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

func (r *txRunner) run(ctx context.Context, name string, fn func(tx ports.LedgerTx) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := r.store.WithinTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return backoff.Permanent(err)
		}
		r.log.Warn("Transient failure in unit of work",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Error(err))
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.baseDelay
	policy.MaxInterval = maxRetryDelay
	bounded := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.maxAttempts-1)), ctx)

	err := backoff.Retry(operation, bounded)
	if err != nil && domain.IsTransient(err) {
		return fmt.Errorf("%s: %w after %d attempts: %v", name, domain.ErrStoreUnavailable, attempt, err)
	}
	return err
}
