package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// RetryEmitter retries failed emits with exponential backoff. Errors wrapping
// ErrEmitterClosed are returned at once.
type RetryEmitter struct {
	next         Emitter
	clock        clockwork.Clock
	attempts     int
	initialDelay time.Duration
	maxDelay     time.Duration
}

func NewRetryEmitter(next Emitter, clock clockwork.Clock, attempts int, initialDelay, maxDelay time.Duration) *RetryEmitter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if attempts < 1 {
		attempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = 50 * time.Millisecond
	}
	if maxDelay < initialDelay {
		maxDelay = initialDelay
	}

	return &RetryEmitter{
		next:         next,
		clock:        clock,
		attempts:     attempts,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

func (e *RetryEmitter) Emit(ctx context.Context, cmd Command) error {
	var err error
	for attempt := 0; attempt < e.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("emit %s: %w", cmd.Func, ctx.Err())
			case <-e.clock.After(e.backoff(attempt - 1)):
			}
		}

		err = e.next.Emit(ctx, cmd)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrEmitterClosed) {
			return err
		}
	}

	return fmt.Errorf("emit %s after %d attempts: %w", cmd.Func, e.attempts, err)
}

// backoff returns initialDelay * 2^attempt capped at maxDelay.
func (e *RetryEmitter) backoff(attempt int) time.Duration {
	d := e.initialDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= e.maxDelay {
			return e.maxDelay
		}
	}

	return d
}
