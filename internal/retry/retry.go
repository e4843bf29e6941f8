// Package retry bounds how often a username probe is repeated when the
// network, rather than the target, produced the answer.
package retry

import (
	"context"
	"time"

	"github.com/hakim/sshenum/internal/models"
)

// WaitFunc blocks for d or until ctx ends, returning ctx.Err() in the latter case.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production WaitFunc. It only blocks the calling goroutine.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backoff returns the delay before the k-th retry (0-indexed): 1s, 2s, 4s, ...
func Backoff(k int) time.Duration {
	if k < 0 {
		k = 0
	}
	if k > 30 {
		k = 30
	}
	return time.Duration(1<<uint(k)) * time.Second
}

// ProbeFunc performs one attempt and classifies it.
type ProbeFunc func(ctx context.Context) models.Outcome

// Hook observes a retry before its delay starts. attempt is the 1-based
// number of the attempt that just failed.
type Hook func(attempt int, delay time.Duration)

// Controller retries a probe while it reports a connection error.
type Controller struct {
	MaxRetries int
	Wait       WaitFunc
}

// New returns a Controller using the real-time Sleep.
func New(maxRetries int) *Controller {
	return &Controller{MaxRetries: maxRetries, Wait: Sleep}
}

// Result is the final outcome for one username plus how it was reached.
type Result struct {
	Outcome  models.Outcome
	Attempts int
	Delays   []time.Duration
	// Err is set when the context ended the retry loop early.
	Err error
}

// Do runs probe at most MaxRetries+1 times. It stops at the first outcome
// that is not a connection error, and returns the last connection error
// unchanged once retries are exhausted.
func (c *Controller) Do(ctx context.Context, probe ProbeFunc, onRetry Hook) Result {
	wait := c.Wait
	if wait == nil {
		wait = Sleep
	}
	maxRetries := max(c.MaxRetries, 0)

	var res Result
	for k := 0; ; k++ {
		res.Outcome = probe(ctx)
		res.Attempts++

		if res.Outcome != models.OutcomeConnectionError || k >= maxRetries {
			return res
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		delay := Backoff(k)
		if onRetry != nil {
			onRetry(res.Attempts, delay)
		}
		res.Delays = append(res.Delays, delay)
		if err := wait(ctx, delay); err != nil {
			res.Err = err
			return res
		}
	}
}
