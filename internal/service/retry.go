package service

import (
	"context"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/rs/zerolog/log"
)

// LockRetry bounds the re-execution of a transaction that lost a row-lock race.
type LockRetry struct {
	Attempts int
	Delay    time.Duration
}

// DefaultLockRetry is 3 attempts, 150ms apart.
var DefaultLockRetry = LockRetry{Attempts: 3, Delay: 150 * time.Millisecond}

func (r LockRetry) normalized() LockRetry {
	if r.Attempts < 1 {
		r.Attempts = DefaultLockRetry.Attempts
	}
	if r.Delay < 0 {
		r.Delay = 0
	}
	return r
}

// withLockRetry re-runs op while it fails with a transient lock error. Any
// other error, including domain errors, is returned immediately. When every
// attempt is exhausted the caller gets a Contention error (503).
func withLockRetry(ctx context.Context, policy LockRetry, op string, fn func() error) error {
	policy = policy.normalized()
	var err error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err = fn()
		if err == nil || !repository.IsTransient(err) {
			return err
		}
		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("lock contention, retrying")
		if attempt == policy.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Delay):
		}
	}
	return apierror.Wrap(apierror.KindUnavailable, ErrContention, "Database is busy. Please retry shortly.")
}
