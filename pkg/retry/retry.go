// Package retry computes retry delays for outbound CRS messages
// (spec.md §4.6). Two strategies are supported: Exponential and Linear.
// Whether a given failure is retryable at all is decided upstream by
// domain.ErrorKind; this package only answers "how long to wait before
// attempt N".
package retry

import (
	"math"
	"time"
)

// Strategy computes the delay before a given attempt. AttemptIndex is
// 1-based: attempt 1 is the original send, so the wait before the first
// retry is Delay(2) (see Plan).
type Strategy interface {
	Delay(attemptIndex int) time.Duration
}

// Exponential implements delay = min(initial * multiplier^(attempt-1), max).
type Exponential struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

func (e Exponential) Delay(attemptIndex int) time.Duration {
	if attemptIndex < 1 {
		attemptIndex = 1
	}
	multiplier := e.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	raw := float64(e.Initial) * math.Pow(multiplier, float64(attemptIndex-1))
	if e.Max > 0 && raw > float64(e.Max) {
		return e.Max
	}
	return time.Duration(raw)
}

// Linear implements delay = min(initial + step*(attempt-1), max).
type Linear struct {
	Initial time.Duration
	Step    time.Duration
	Max     time.Duration
}

func (l Linear) Delay(attemptIndex int) time.Duration {
	if attemptIndex < 1 {
		attemptIndex = 1
	}
	raw := l.Initial + time.Duration(attemptIndex-1)*l.Step
	if l.Max > 0 && raw > l.Max {
		return l.Max
	}
	return raw
}

// Policy pairs a strategy with the attempt ceiling. The floor imposed by
// the failure's ErrorKind (domain.ErrorKind.MinRetryDelay) is passed to
// NextDelay on each call.
type Policy struct {
	Strategy    Strategy
	MaxAttempts int
}

// NextDelay returns the delay before attemptIndex, raised to at least
// floor (the ErrorKind-specific minimum, or zero if none applies).
func (p Policy) NextDelay(attemptIndex int, floor time.Duration) time.Duration {
	d := p.Strategy.Delay(attemptIndex)
	if d < floor {
		return floor
	}
	return d
}

// Exhausted reports whether attemptIndex has used up the policy's budget.
func (p Policy) Exhausted(attemptIndex int) bool {
	return p.MaxAttempts > 0 && attemptIndex > p.MaxAttempts
}

// Schedule describes one planned retry attempt for audit-log purposes.
type Schedule struct {
	AttemptIndex int
	Delay        time.Duration
	ScheduledAt  time.Time
}

// Plan materializes the full schedule of attempts for a policy, starting
// from `now`. The first entry (attempt 1) always has zero delay: it is
// the original send, not a wait.
func Plan(p Policy, floor time.Duration, attempts int, now time.Time) []Schedule {
	if attempts < 1 {
		attempts = 1
	}
	out := make([]Schedule, attempts)
	at := now
	for i := 0; i < attempts; i++ {
		idx := i + 1
		var d time.Duration
		if idx > 1 {
			d = p.NextDelay(idx, floor)
			at = at.Add(d)
		}
		out[i] = Schedule{AttemptIndex: idx, Delay: d, ScheduledAt: at}
	}
	return out
}
