package ratelimit

import (
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentCallersUnderFakeClock(t *testing.T) {
	const (
		goroutines = 300
		max        = 1000
	)
	ti := buildInstanceWithMax(t, max)

	hammer := func(callsEach int) uint64 {
		var admitted atomic.Uint64
		var wg sync.WaitGroup
		for n := 0; n < goroutines; n++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < callsEach; i++ {
					if ti.Instance.TryAcquire() {
						admitted.Add(1)
					}
				}
			}()
		}
		wg.Wait()
		return admitted.Load()
	}

	// 3000 calls race for 1000 tickets
	assert.Equal(t, uint64(max), hammer(10))
	ti.AssertWindowStatus(t, max, 0)

	ti.TimeTravel(600)
	assert.Equal(t, uint64(0), hammer(10))

	// the first burst leaves the window
	ti.TimeTravel(401)
	assert.Equal(t, uint64(max), hammer(10))
	ti.AssertWindowStatus(t, max, 1001)
}

func TestConcurrentStressWithRealClock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real time stress test in short mode")
	}

	const (
		goroutines = 300
		max        = 200
	)
	limiter, err := New(&Config{
		MaxPerWindow: max,
		Logger:       NewNoOpLogger(),
	})
	require.NoError(t, err)

	type admission struct {
		before time.Time
		after  time.Time
	}

	var lock sync.Mutex
	var admissions []admission

	var wg sync.WaitGroup
	for n := 0; n < goroutines; n++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < 20; i++ {
				before := time.Now()
				if limiter.TryAcquire() {
					after := time.Now()
					lock.Lock()
					admissions = append(admissions, admission{before, after})
					lock.Unlock()
				}
				time.Sleep(time.Duration(rnd.Intn(120)) * time.Millisecond)
			}
		}(int64(n))
	}
	wg.Wait()

	require.NotEmpty(t, admissions)
	sort.Slice(admissions, func(i, j int) bool { return admissions[i].before.Before(admissions[j].before) })

	// count, for every window starting at an admission, the admissions that
	// certainly happened inside it.
	for i, first := range admissions {
		windowEnd := first.before.Add(time.Second)
		inside := 0
		for _, a := range admissions[i:] {
			if !a.before.Before(windowEnd) {
				break
			}
			if a.after.Before(windowEnd) {
				inside++
			}
		}
		if !assert.LessOrEqual(t, inside, max, "window starting at admission #%d", i) {
			return
		}
	}
}
