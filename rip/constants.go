package rip

import "time"

// Several RIP daemon parameters have fixed architectural values, in the
// same spirit as RFC 2453's appendix of timer constants. They are grouped
// here rather than scattered through the files that use them.

const (
	// Infinity is the metric sentinel denoting an unreachable destination.
	// Any arithmetic result exceeding it saturates back down to it.
	Infinity = 16

	// MinRouterID and MaxRouterID bound a valid router identifier.
	MinRouterID = 1
	MaxRouterID = 64000

	// MinPort and MaxPort bound a valid configured port number.
	MinPort = 1024
	MaxPort = 64000

	// TimeoutPeriodRatio and GCPeriodRatio scale the configured update
	// period into the per-entry timeout and garbage-collection periods.
	TimeoutPeriodRatio = 6
	GCPeriodRatio      = 4

	// DefaultUpdatePeriod is used when the config file does not specify
	// update-period.
	DefaultUpdatePeriod = 30 * time.Second

	// SelectTimeout bounds how long the event loop may block inside a
	// single call to the receiver's readiness wait.
	SelectTimeout = 1000 * time.Millisecond

	// PeriodicJitterLow and PeriodicJitterHigh bound the uniform jitter
	// applied to each periodic update's scheduling.
	PeriodicJitterLow  = 0.8
	PeriodicJitterHigh = 1.2

	// TriggeredBackoffLow and TriggeredBackoffHigh bound the random delay
	// before a triggered update may be sent after the previous one.
	TriggeredBackoffLow  = 1 * time.Second
	TriggeredBackoffHigh = 5 * time.Second
)
