package rip

import (
	"math/rand"
	"time"
)

// jitteredDuration scales base by a uniform random factor in [low, high).
// Used for the periodic update schedule's independent per-tick jitter.
func jitteredDuration(base time.Duration, low, high float64) time.Duration {
	factor := low + rand.Float64()*(high-low)
	return time.Duration(float64(base) * factor)
}

// randomBackoff returns a uniformly random duration in [low, high), used
// for the triggered-update backoff window.
func randomBackoff(low, high time.Duration) time.Duration {
	if high <= low {
		return low
	}
	return low + time.Duration(rand.Int63n(int64(high-low)))
}
