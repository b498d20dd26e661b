// Package retry implements the client-side retry policy of component
// C8: deciding whether a response status warrants another attempt and,
// if so, how long to sleep first (spec §4.8).
package retry

import (
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func msToDuration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }
func durationToMs(d time.Duration) int64  { return int64(d / time.Millisecond) }

// DefaultTriggerCodes is the status-code set that provokes a retry when
// no explicit set is given (spec §4.8).
var DefaultTriggerCodes = map[int]bool{
	408: true,
	429: true,
	502: true,
	503: true,
	504: true,
}

// Backoff is a stateful millisecond-delay generator. Next returns the
// next delay and true, or (0, false) once retries are exhausted (spec
// §4.8's "terminates with a sentinel").
type Backoff interface {
	Next() (delayMs int64, ok bool)
}

// jitter applies spec §4.8's exact formula:
// value * (1 + U[-jitter_pct, +jitter_pct]/100), truncated to an
// integer. cenkalti/backoff's own RandomizationFactor jitters
// differently (a symmetric fraction of the current interval, not a
// caller-specified percentage window), so this is layered on top of
// plain backoff.ExponentialBackOff/ConstantBackOff instances instead of
// delegated to the library.
func jitter(value int64, pctPoints int) int64 {
	if pctPoints <= 0 {
		return value
	}
	span := float64(2*pctPoints) / 100.0
	factor := 1 + (rand.Float64()*span - float64(pctPoints)/100.0)
	return int64(float64(value) * factor)
}

// FixedBackoff returns initialDelayMs (± jitter) on every call, up to
// maxRetry times (spec §4.8 "Fixed").
type FixedBackoff struct {
	inner     *backoff.ConstantBackOff
	jitterPct int
	maxRetry  int

	calls int
}

// NewFixedBackoff builds a Backoff over
// github.com/cenkalti/backoff/v4's ConstantBackOff, which already
// models "always the same base interval" (SPEC_FULL.md §5); this type
// only adds the call counter and spec-shaped jitter on top.
func NewFixedBackoff(initialDelayMs int64, jitterPct, maxRetry int) *FixedBackoff {
	inner := backoff.NewConstantBackOff(msToDuration(initialDelayMs))
	return &FixedBackoff{inner: inner, jitterPct: jitterPct, maxRetry: maxRetry}
}

func (b *FixedBackoff) Next() (int64, bool) {
	if b.calls >= b.maxRetry {
		return 0, false
	}
	b.calls++
	return jitter(durationToMs(b.inner.NextBackOff()), b.jitterPct), true
}

// LinearBackoff increases the running delay by increaseMs on every
// call (spec §4.8 "Linear").
type LinearBackoff struct {
	current   int64
	increment int64
	jitterPct int
	maxRetry  int

	calls int
}

func NewLinearBackoff(initialDelayMs, increaseMs int64, jitterPct, maxRetry int) *LinearBackoff {
	return &LinearBackoff{current: initialDelayMs - increaseMs, increment: increaseMs, jitterPct: jitterPct, maxRetry: maxRetry}
}

func (b *LinearBackoff) Next() (int64, bool) {
	if b.calls >= b.maxRetry {
		return 0, false
	}
	b.calls++
	b.current += b.increment
	return jitter(b.current, b.jitterPct), true
}

// ExponentialBackoff multiplies the running delay by multiplier on
// every call (spec §4.8 "Exponential"), built over
// backoff.ExponentialBackOff for the underlying growth curve.
type ExponentialBackoff struct {
	inner     *backoff.ExponentialBackOff
	jitterPct int
	maxRetry  int

	calls int
}

func NewExponentialBackoff(initialDelayMs int64, multiplier float64, jitterPct, maxRetry int) *ExponentialBackoff {
	inner := backoff.NewExponentialBackOff()
	inner.RandomizationFactor = 0
	inner.Multiplier = multiplier
	inner.InitialInterval = msToDuration(initialDelayMs)
	inner.MaxInterval = 365 * 24 * time.Hour
	inner.MaxElapsedTime = 0
	inner.Reset()
	return &ExponentialBackoff{inner: inner, jitterPct: jitterPct, maxRetry: maxRetry}
}

func (b *ExponentialBackoff) Next() (int64, bool) {
	if b.calls >= b.maxRetry {
		return 0, false
	}
	b.calls++
	return jitter(durationToMs(b.inner.NextBackOff()), b.jitterPct), true
}

// Policy decides, given a response status code, whether the client
// should retry and after how long (spec §4.8).
type Policy struct {
	triggerCodes map[int]bool
	backoff      Backoff
}

// New builds a Policy. A nil triggerCodes falls back to
// DefaultTriggerCodes.
func New(triggerCodes map[int]bool, b Backoff) *Policy {
	if triggerCodes == nil {
		triggerCodes = DefaultTriggerCodes
	}
	return &Policy{triggerCodes: triggerCodes, backoff: b}
}

// Evaluate returns the delay (in milliseconds) to sleep before
// retrying statusCode, or (0, false) if the request should not be
// retried.
func (p *Policy) Evaluate(statusCode int) (delayMs int64, retry bool) {
	if p == nil || p.backoff == nil {
		return 0, false
	}
	if !p.triggerCodes[statusCode] {
		return 0, false
	}
	return p.backoff.Next()
}
