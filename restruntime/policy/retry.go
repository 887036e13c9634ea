package policy

import (
	"math/rand"
	"strconv"
	"time"

	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// DefaultMaxRetries, DefaultRetryDelay, and DefaultMaxRetryDelay mirror the
// prior workbrew client's constants.go (MaxRetries=3, RetryWaitTime,
// RetryMaxWaitTime), generalized from fixed package constants into
// configurable policy defaults.
const (
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 10 * time.Millisecond
	DefaultMaxRetryDelay = 10 * time.Second
)

// defaultRetriableStatus reports whether a status code is retried by
// default: 408, 429, and 5xx except 501 and 505.
func defaultRetriableStatus(status int) bool {
	switch status {
	case 408, 429:
		return true
	case 501, 505:
		return false
	default:
		return status >= 500 && status < 600
	}
}

// RetryPolicy retries up to MaxRetries times when the transport fails or
// the response status is retriable, with exponential backoff plus added
// jitter (each delay is at least RetryDelay<<attempt, capped at
// MaxRetryDelay), honoring Retry-After when present. Re-authentication
// retries never count against MaxRetries: the credentials policy restarts
// the pipeline from a fresh handle for those, which gives them their own
// retry budget.
type RetryPolicy struct {
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	ShouldRetry   func(resp *transport.Response, err error) bool
}

// NewRetryPolicy builds a policy with the module's defaults.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

func (p *RetryPolicy) shouldRetry(resp *transport.Response, err error) bool {
	if p.ShouldRetry != nil {
		return p.ShouldRetry(resp, err)
	}
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	return defaultRetriableStatus(resp.Status)
}

// Process implements Policy. It loops up to MaxRetries+1 total attempts
// (the initial try plus MaxRetries retries), restarting the pipeline from
// its head on each attempt.
func (p *RetryPolicy) Process(ctx *Context, next Next) (*transport.Response, error) {
	attempts := 0
	var lastResp *transport.Response
	var lastErr error

	for {
		if ctx.Ctx.Err() != nil {
			// Cancellation propagates inward; a cancelled retry loop does
			// not attempt further retries.
			if lastResp != nil {
				return lastResp, lastErr
			}
			return nil, ctx.Ctx.Err()
		}

		resp, err := next.Process(ctx)

		if !p.shouldRetry(resp, err) {
			return resp, err
		}

		if resp != nil && resp.Body != nil {
			resp.Body.Discard()
		}

		if attempts >= p.MaxRetries {
			return resp, err
		}

		delay := p.delayFor(resp, attempts)
		if sleepErr := transport.Sleep(ctx.Ctx, delay); sleepErr != nil {
			if resp != nil {
				return resp, err
			}
			return nil, sleepErr
		}

		lastResp, lastErr = resp, err
		attempts++
		next = next.Restart()
	}
}

func (p *RetryPolicy) delayFor(resp *transport.Response, attempt int) time.Duration {
	if resp != nil {
		if ra := resp.Headers.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				return time.Duration(secs) * time.Second
			}
			if t, err := time.Parse(time.RFC1123, ra); err == nil {
				if d := time.Until(t); d > 0 {
					return d
				}
			}
		}
	}

	base := p.RetryDelay
	if base <= 0 {
		base = DefaultRetryDelay
	}
	maxDelay := p.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	backoff := base << attempt
	if backoff <= 0 || backoff > maxDelay {
		backoff = maxDelay
	}
	// jitter is added on top of the backoff (uniform in [0, backoff/2]), so
	// a delay never falls below base<<attempt and never shrinks between
	// attempts; the result is capped at maxDelay.
	delay := backoff + time.Duration(rand.Int63n(int64(backoff)/2+1))
	if delay <= 0 || delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// AsTransportFailureKind is a small helper for callers that want to
// classify a transport error without importing the errors package
// directly for the common case.
func AsTransportFailureKind(err error) (resterrors.TransportFailureKind, bool) {
	tf, ok := err.(*resterrors.TransportFailure)
	if !ok {
		return 0, false
	}
	return tf.Kind, true
}
