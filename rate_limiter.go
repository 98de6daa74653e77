package ratelimit

import "time"

// RateLimiter is the interface for the sliding window
// rate limiters created with ratelimit.New(...).
//
// You are encouraged to use this type when storing references
// to your limiters in order to allow for easier implementations switch.
type RateLimiter interface {
	// TryAcquire asks for a ticket.
	// It returns true if the caller may proceed, false if the
	// maximum number of admissions in the trailing second was reached.
	//
	// A rejection is a normal outcome, not an error:
	// what to do next (retry, drop, back off) is up to the caller.
	TryAcquire() bool

	// Stats returns a snapshot of the window, aged to the current time.
	Stats() RuntimeStatistics
}

// TicketAcquirer is the minimal contract the load harness needs
// from a limiter.
type TicketAcquirer interface {
	TryAcquire() bool
}

// Config holds the basic configuration for a rate limiter instance
type Config struct {

	// MaxPerWindow is the maximum number of tickets
	// granted in any rolling second.
	// Zero is allowed and rejects every request.
	MaxPerWindow int

	// Resolution is the number of time slices a second is divided in.
	//
	// Finer slices reduce boundary jitter at the cost of a larger history.
	// One second should be an exact multiple of the resulting slice duration.
	//
	// When not specified, 1000 slices (1ms each) are used.
	Resolution int

	// TimeFunc can be overridden to allow for easier testing.
	// You should usually not override it, and if you do
	// it must never move backward.
	TimeFunc func() time.Time

	// you can pass your custom logger if you'd like to
	// but it's not required
	Logger Logger
}

// RuntimeStatistics holds a snapshot of the limiter window.
type RuntimeStatistics struct {
	// WindowTotal holds the number of tickets granted in the trailing window.
	WindowTotal uint64

	// Slices holds the per-slice counters of the history buffer,
	// indexed by slice position (slice index modulo the buffer length).
	Slices []uint64

	// LastSlice is the index of the last time slice observed.
	LastSlice int64
}
