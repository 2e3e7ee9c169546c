package webclient

import (
	"context"
	"net/http"
	"time"
)

type AttemptFunc func() (status int, body []byte, err error)

const maxDelay = 30 * time.Second

// Transient reports whether an attempt is worth repeating.
func Transient(status int, err error) bool {
	return err != nil || status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry repeats fn on transient failures, doubling the pause each time.
func DoWithRetry(ctx context.Context, attempts int, initialDelay time.Duration, fn AttemptFunc) (int, []byte, error) {
	if attempts <= 0 {
		attempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}
	delay := initialDelay
	for i := 0; ; i++ {
		status, body, err := fn()
		if !Transient(status, err) || i == attempts-1 {
			return status, body, err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return status, body, ctx.Err()
		case <-t.C:
		}
		if delay < maxDelay {
			delay *= 2
		}
	}
}
