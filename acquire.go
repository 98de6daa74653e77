package ratelimit

// TryAcquire asks for a ticket.
// It returns true if the caller may proceed, false if the
// maximum number of admissions in the trailing second was reached.
//
// The aging of the window and the admission check happen
// as a single step under the limiter lock.
func (instance *rateLimiterDefaultImpl) TryAcquire() bool {
	instance.Lock.Lock()
	defer instance.Lock.Unlock()

	nowSlice := instance.ageWindow(instance.locateSlice(instance.currentTime()))

	return instance.acquire(nowSlice)
}

func (instance *rateLimiterDefaultImpl) acquire(nowSlice int64) bool {
	if instance.CurrentCount >= instance.Config.MaxPerWindow {
		return false
	}

	instance.CurrentCount++
	instance.History[instance.slicePosition(nowSlice)]++
	return true
}
