package retry

import (
	"context"
	"time"
)

// Until calls fn until it returns nil or ctx is done.
// There is no attempt cap. Backoff between attempts belongs to fn.
// onFailure (optional) observes every failed attempt, 1-based.
// Returns the number of attempts made and ctx.Err() if cancelled.
func Until(ctx context.Context, fn func(context.Context) error, onFailure func(attempt int, err error)) (int, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}

		attempts++
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}
		if onFailure != nil {
			onFailure(attempts, err)
		}
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
