package worker

import "time"

// RetryPolicy controls how often a failed mirror task is retried.
// Zero values fall back to sane defaults so an empty policy still works.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the wait before the given attempt (1-based).
// The delay grows by BackoffFactor per attempt and is clamped at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	base := r.InitialDelay
	if base <= 0 {
		base = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	d := float64(base)
	for i := 1; i < attempt; i++ {
		d *= factor
		if r.MaxDelay > 0 && d >= float64(r.MaxDelay) {
			return r.MaxDelay
		}
	}

	out := time.Duration(d)
	if out <= 0 {
		out = time.Second
	}
	return out
}
