package ratelimit

import (
	"fmt"
	"time"
)

// locateSlice returns the index of the time slice t falls in,
// counting from the limiter epoch.
func (instance *rateLimiterDefaultImpl) locateSlice(t time.Time) int64 {
	return int64(t.Sub(instance.Epoch) / instance.Config.SliceDuration)
}

func (instance *rateLimiterDefaultImpl) slicePosition(slice int64) uint64 {
	return uint64(slice) % instance.Config.HistoryLength
}

// ageWindow expires the counts of the slices that fell out of the
// trailing window since the last observed slice and moves the window
// to nowSlice. It returns the slice the window now ends at.
//
// The time source must be monotonic. A slice older than the last observed
// one is not aged: it is accounted on the last slice and a warning is logged.
//
// Caller must hold the lock.
func (instance *rateLimiterDefaultImpl) ageWindow(nowSlice int64) int64 {
	last := instance.LastUpdateSlice
	if nowSlice < last {
		instance.Logger.Warning(fmt.Sprintf(
			"time slice %d is older than the last observed slice %d. "+
				"please check that the configured time source is monotonic.",
			nowSlice, last,
		))
		return last
	}

	delta := uint64(nowSlice - last)
	historyLength := instance.Config.HistoryLength

	switch {
	case delta == 0:
		// same slice as the previous request, nothing expired

	case delta < historyLength:
		// less than a full window elapsed: clear the slices skipped since
		// the last update, up to and including the current one which still
		// holds the count from one full history length ago.
		pos := instance.slicePosition(last)
		for i := uint64(0); i < delta; i++ {
			pos++
			if pos == historyLength {
				pos = 0
			}
			instance.CurrentCount -= instance.History[pos]
			instance.History[pos] = 0
		}

	default:
		// the whole window is stale
		for i := range instance.History {
			instance.History[i] = 0
		}
		instance.CurrentCount = 0
	}

	instance.LastUpdateSlice = nowSlice
	return nowSlice
}
