package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

// Default retry policy values.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 500 * time.Millisecond
	DefaultMaxDelay   = 30 * time.Second
)

// Policy controls how Execute retries an operation.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is multiplied by the attempt number to get the backoff.
	BaseDelay time.Duration

	// MaxDelay caps every backoff, including server retry hints. Zero means uncapped.
	MaxDelay time.Duration

	// AttemptTimeout bounds each attempt. Expiry counts as a transient failure.
	AttemptTimeout time.Duration

	// Retryable overrides the default retry decision (transient or rate
	// limited). Client and protocol errors are never retried whatever it returns.
	Retryable func(error) bool

	// Limiter, when set, is waited on before every attempt.
	Limiter *rate.Limiter
}

// DefaultPolicy returns the policy used for inference calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// NewLimiter returns a limiter allowing rps requests per second with the
// given burst, or nil when rps is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (p Policy) retryable(err error) bool {
	switch Classify(err) {
	case KindClient, KindProtocol:
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsRetryable(err)
}

// Backoff returns the delay before the retry that follows the given attempt.
// It is BaseDelay*attempt, raised to the error's retry hint, capped at MaxDelay.
func (p Policy) Backoff(attempt int, err error) time.Duration {
	delay := p.BaseDelay * time.Duration(attempt)
	if hint := RetryAfterOf(err); hint > delay {
		delay = hint
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Executor runs operations under a Policy and records terminal failures.
type Executor struct {
	log   *ErrorLog
	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSleep replaces the backoff sleep. Used by tests.
func WithSleep(fn func(context.Context, time.Duration) error) ExecutorOption {
	return func(x *Executor) {
		x.sleep = fn
	}
}

// WithClock replaces the clock used to timestamp log entries.
func WithClock(fn func() time.Time) ExecutorOption {
	return func(x *Executor) {
		x.now = fn
	}
}

// NewExecutor creates an executor recording into log. A nil log disables recording.
func NewExecutor(log *ErrorLog, opts ...ExecutorOption) *Executor {
	x := &Executor{
		log:   log,
		sleep: sleepContext,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ErrorLog returns the log terminal failures are recorded in.
func (x *Executor) ErrorLog() *ErrorLog {
	return x.log
}

// Execute runs fn until it succeeds, fails with a non-retryable error, runs
// out of retries, or ctx ends. The returned error is an *Error tagged with
// op and the number of attempts made.
//
// No attempt is started, and no backoff is slept, past ctx's deadline.
func Execute[T any](ctx context.Context, x *Executor, op string, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if x == nil {
		x = NewExecutor(nil)
	}
	maxAttempts := p.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, x.fail(op, attempt-1, err, err)
		}
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return zero, x.fail(op, attempt-1, Transient(fmt.Errorf("throttle: %w", err)), ctx.Err())
			}
		}

		v, err := runAttempt(ctx, p, fn)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, x.fail(op, attempt, err, ctx.Err())
		}
		if !p.retryable(err) || attempt >= maxAttempts {
			return zero, x.fail(op, attempt, err, nil)
		}

		delay := p.Backoff(attempt, err)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= delay {
			return zero, x.fail(op, attempt, err, context.DeadlineExceeded)
		}
		logger.Warn("%s: attempt %d/%d failed (%s), retrying in %s", op, attempt, maxAttempts, Classify(err), delay)
		if serr := x.sleep(ctx, delay); serr != nil {
			return zero, x.fail(op, attempt, err, serr)
		}
	}
}

// runAttempt invokes fn once, bounded by the policy's attempt timeout.
func runAttempt[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	if p.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()

	v, err := fn(actx)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		var re *Error
		if !errors.As(err, &re) {
			err = Transient(fmt.Errorf("attempt timed out after %s: %w", p.AttemptTimeout, err))
		}
	}
	return v, err
}

// fail builds the terminal error, records it and logs it. stop is the
// context error that cut the retries short, if any.
func (x *Executor) fail(op string, attempts int, err, stop error) error {
	out := &Error{Op: op, Kind: Classify(err), Attempts: attempts, Err: err}
	var re *Error
	if errors.As(err, &re) {
		out.StatusCode = re.StatusCode
		out.RetryAfter = re.RetryAfter
		if re == err && re.Op == "" && re.Err != nil {
			out.Err = re.Err
		}
	}
	if stop != nil && stop != err {
		out.Err = fmt.Errorf("%w (retry aborted: %w)", out.Err, stop)
	}

	if x.log != nil {
		x.log.Record(Entry{
			Time:       x.now(),
			Op:         op,
			Kind:       out.Kind,
			StatusCode: out.StatusCode,
			Attempts:   attempts,
			Message:    out.Err.Error(),
		})
	}
	logger.Debug("%s", out.Error())
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
