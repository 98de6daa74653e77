package ratelimit

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
)

var (
	defaultBucketWidth = 100 * time.Millisecond
)

// HarnessConfig holds the configuration for a load harness.
type HarnessConfig struct {

	// BucketWidth is the width of the reporting buckets.
	// It must be a whole number of milliseconds
	// and one second should be an exact multiple of it.
	//
	// When not specified, 100ms buckets are used.
	BucketWidth time.Duration

	// Metrics, when provided, is fed with every call outcome.
	Metrics *Metrics

	// TimeFunc can be overridden to allow for easier testing.
	// It must be monotonic.
	TimeFunc func() time.Time

	// you can pass your custom logger if you'd like to
	// but it's not required
	Logger Logger
}

// LoadHarness wraps a limiter and records, per coarse time bucket,
// how many calls were admitted and how many were rejected.
//
// Call is safe for concurrent use. The harness lock and the
// limiter lock are never held at the same time.
type LoadHarness struct {
	limiter TicketAcquirer
	metrics *Metrics
	logger  Logger

	timeFunc         func() time.Time
	start            time.Time
	bucketWidth      time.Duration
	bucketsPerSecond int

	lock sync.Mutex
	// a deque keeps per-bucket counters in bucket order,
	// growing at the back as later buckets are touched.
	buckets *deque.Deque
}

// bucketCounters holds the outcomes recorded in a single bucket.
type bucketCounters struct {
	Admitted uint64
	Rejected uint64
}

// BucketStat is the reporting view of a single bucket.
type BucketStat struct {
	From time.Duration
	To   time.Duration

	Admitted uint64
	Rejected uint64

	// RollingAdmitted is the number of calls admitted in this bucket
	// and in the preceding buckets covering one second overall.
	RollingAdmitted uint64
}

// NewHarness returns a load harness driving the given limiter.
// The harness clock starts when it is built.
func NewHarness(limiter TicketAcquirer, config *HarnessConfig) (*LoadHarness, error) {
	if limiter == nil {
		return nil, invalidConfiguration("limiter", "is required")
	}
	if config == nil {
		config = &HarnessConfig{}
	}

	bucketWidth := config.BucketWidth
	if bucketWidth == 0 {
		bucketWidth = defaultBucketWidth
	}
	if bucketWidth < 0 {
		return nil, invalidConfiguration("BucketWidth", "should be positive (given: %v)", config.BucketWidth)
	}
	if bucketWidth > time.Second {
		return nil, invalidConfiguration("BucketWidth", "should not be greater than one second (given: %v)", config.BucketWidth)
	}
	if bucketWidth%time.Millisecond > 0 {
		return nil, invalidConfiguration("BucketWidth", "should be a whole number of milliseconds (given: %v)", config.BucketWidth)
	}
	if time.Second%bucketWidth > 0 {
		return nil, invalidConfiguration("BucketWidth", "should divide a second in buckets of equal width (given: %v)", config.BucketWidth)
	}

	out := LoadHarness{
		limiter:          limiter,
		metrics:          config.Metrics,
		logger:           effectiveLogger(config.Logger),
		timeFunc:         config.TimeFunc,
		bucketWidth:      bucketWidth,
		bucketsPerSecond: int(time.Second / bucketWidth),
		buckets:          deque.New(),
	}
	if out.timeFunc == nil {
		out.timeFunc = time.Now
	}
	out.start = out.timeFunc()

	return &out, nil
}

// Call asks the limiter for a ticket and records the outcome
// in the bucket matching the time elapsed since the harness start.
// It returns whether the call was admitted.
func (h *LoadHarness) Call() bool {
	requestedAt := h.timeFunc()
	admitted := h.limiter.TryAcquire()
	now := h.timeFunc()

	if h.metrics != nil {
		h.metrics.observe(admitted, now.Sub(requestedAt))
	}

	index := h.locateBucket(now)

	h.lock.Lock()
	defer h.lock.Unlock()

	counters := h.ensureBucketLocked(index)
	if admitted {
		counters.Admitted++
	} else {
		counters.Rejected++
	}

	return admitted
}

func (h *LoadHarness) locateBucket(t time.Time) int {
	elapsed := t.Sub(h.start)
	if elapsed < 0 {
		h.logger.Warning("harness time source went back before the harness start, recording in the first bucket")
		return 0
	}
	return int(elapsed / h.bucketWidth)
}

// ensureBucketLocked grows the buckets up to index and returns its counters.
// Caller must hold the lock.
func (h *LoadHarness) ensureBucketLocked(index int) *bucketCounters {
	for h.buckets.Len() <= index {
		h.buckets.PushBack(&bucketCounters{})
	}
	return h.buckets.At(index).(*bucketCounters)
}

// Buckets returns the recorded buckets in order,
// each one with its rolling one-second admitted count.
func (h *LoadHarness) Buckets() []BucketStat {
	h.lock.Lock()
	defer h.lock.Unlock()

	num := h.buckets.Len()
	out := make([]BucketStat, num)

	rolling := uint64(0)
	for i := 0; i < num; i++ {
		counters := h.buckets.At(i).(*bucketCounters)

		rolling += counters.Admitted
		if evicted := i - h.bucketsPerSecond; evicted >= 0 {
			rolling -= h.buckets.At(evicted).(*bucketCounters).Admitted
		}

		out[i] = BucketStat{
			From:            time.Duration(i) * h.bucketWidth,
			To:              time.Duration(i+1) * h.bucketWidth,
			Admitted:        counters.Admitted,
			Rejected:        counters.Rejected,
			RollingAdmitted: rolling,
		}
	}

	return out
}

// Totals returns the number of admitted and rejected calls recorded so far.
func (h *LoadHarness) Totals() (admitted uint64, rejected uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	for i := 0; i < h.buckets.Len(); i++ {
		counters := h.buckets.At(i).(*bucketCounters)
		admitted += counters.Admitted
		rejected += counters.Rejected
	}
	return admitted, rejected
}
