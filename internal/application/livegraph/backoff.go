package livegraph

import (
	"fmt"
	"time"
)

// Backoff computes the delay before reconnect attempt n (1-based).
type Backoff interface {
	Next(attempt int) time.Duration
}

// LinearBackoff waits Base * attempt, capped at Max.
type LinearBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// Next returns the delay for the given attempt.
func (b LinearBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return capDelay(b.Base*time.Duration(attempt), b.Max)
}

// ExponentialBackoff waits Base * 2^(attempt-1), capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// Next returns the delay for the given attempt.
func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := b.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if b.Max > 0 && delay >= b.Max {
			return b.Max
		}
	}
	return capDelay(delay, b.Max)
}

func capDelay(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}

// NewBackoff builds the named strategy.
func NewBackoff(kind string, base, max time.Duration) (Backoff, error) {
	switch kind {
	case "", "linear":
		return LinearBackoff{Base: base, Max: max}, nil
	case "exponential":
		return ExponentialBackoff{Base: base, Max: max}, nil
	default:
		return nil, fmt.Errorf("unknown backoff strategy: %s", kind)
	}
}
