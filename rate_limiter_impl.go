package ratelimit

import (
	"sync"
	"time"
)

// rateLimiterDefaultImpl holds all the required
// runtime data together with the parsed configuration.
type rateLimiterDefaultImpl struct {
	Logger Logger
	Config *rateLimiterEffectiveConfig

	// Time functions can be overridden for testing.
	TimeFunc func() time.Time

	// Epoch is the reference time slice indexes are computed from.
	Epoch time.Time

	// a lock provides thread safety.
	// every field below is only accessed while holding it.
	Lock sync.Mutex

	// LastUpdateSlice is the last time slice observed.
	LastUpdateSlice int64

	// History is the circular buffer of per-slice counters.
	// A slice index maps to position (index % HistoryLength).
	History []uint64

	// CurrentCount is the cached sum of History.
	CurrentCount uint64
}

// rateLimiterEffectiveConfig holds the validated and parsed configuration
// that was obtained from the user-provided configuration.
type rateLimiterEffectiveConfig struct {
	MaxPerWindow uint64

	// window composition
	Resolution    uint64
	SliceDuration time.Duration
	HistoryLength uint64
}

func (instance *rateLimiterDefaultImpl) currentTime() time.Time {
	// hook time provider here to allow easier testing
	return instance.TimeFunc()
}

// Stats returns a snapshot of the window, aged to the current time.
func (instance *rateLimiterDefaultImpl) Stats() RuntimeStatistics {
	instance.Lock.Lock()
	defer instance.Lock.Unlock()

	instance.ageWindow(instance.locateSlice(instance.currentTime()))

	return instance.stats()
}

func (instance *rateLimiterDefaultImpl) stats() RuntimeStatistics {
	slices := make([]uint64, len(instance.History))
	copy(slices, instance.History)

	return RuntimeStatistics{
		WindowTotal: instance.CurrentCount,
		Slices:      slices,
		LastSlice:   instance.LastUpdateSlice,
	}
}

// core methods have been moved to the acquire.go and window.go files
