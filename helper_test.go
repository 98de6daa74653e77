package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultMaxPerWindow = 10
	defaultStartTime    = 1000000
)

// fakeClock is a millisecond clock that only moves when told to.
// It is safe to read from many goroutines while a test moves it.
type fakeClock struct {
	lock        sync.Mutex
	CurrentTime uint64
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()

	return time.Unix(
		int64(c.CurrentTime)/int64(1000),
		(int64(c.CurrentTime)%int64(1000))*int64(1000000),
	)
}
func (c *fakeClock) TimeSet(to uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.CurrentTime = to
}
func (c *fakeClock) TimeTravel(diff int64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.CurrentTime = uint64(int64(c.CurrentTime) + diff)
}
func (c *fakeClock) Millis() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.CurrentTime
}

type testableInstance struct {
	*fakeClock
	Instance *rateLimiterDefaultImpl
	Logger   *testLogger
}

type testLogger struct {
	lock     sync.Mutex
	Messages []string
}

func (l *testLogger) append(text string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.Messages = append(l.Messages, text)
}
func (l *testLogger) Debug(text string) {
	l.append(fmt.Sprintf("[d] %v", text))
}
func (l *testLogger) Info(text string) {
	l.append(fmt.Sprintf("[i] %v", text))
}
func (l *testLogger) Warning(text string) {
	l.append(fmt.Sprintf("[w] %v", text))
}
func (l *testLogger) Error(text string) {
	l.append(fmt.Sprintf("[e] %v", text))
}

func (ti *testableInstance) AssertCurrentTime(t *testing.T, expected uint64) {
	assert.Equal(t, expected, ti.Millis(), "the current time is expected to be %v and is instead %v", expected, ti.Millis())
}

// AssertWindowStatus checks the cached total, the last observed slice
// and that the history buffer sums up to the cached total.
func (ti *testableInstance) AssertWindowStatus(t *testing.T, total int, lastSlice int64) {
	ti.Instance.Lock.Lock()
	defer ti.Instance.Lock.Unlock()

	assert.Equal(t, uint64(total), ti.Instance.CurrentCount)
	assert.Equal(t, lastSlice, ti.Instance.LastUpdateSlice)
	assert.Equal(t, ti.Instance.CurrentCount, sumOf(ti.Instance.History))
}

// AcquireN calls TryAcquire n times and returns how many were admitted.
func (ti *testableInstance) AcquireN(n int) int {
	admitted := 0
	for i := 0; i < n; i++ {
		if ti.Instance.TryAcquire() {
			admitted++
		}
	}
	return admitted
}

func buildInstance(t *testing.T, configurer func(config *Config)) *testableInstance {
	ti := testableInstance{
		fakeClock: &fakeClock{CurrentTime: defaultStartTime},
		Logger:    &testLogger{},
	}

	config := Config{
		MaxPerWindow: defaultMaxPerWindow,
		TimeFunc:     ti.Now,
		Logger:       ti.Logger,
	}

	if configurer != nil {
		configurer(&config)
	}

	instance, err := New(&config)
	require.NoError(t, err)
	require.NotNil(t, instance)

	ti.Instance = instance.(*rateLimiterDefaultImpl)

	return &ti
}

func buildDefaultInstance(t *testing.T) *testableInstance {
	return buildInstance(t, nil)
}

func buildInstanceWithMax(t *testing.T, max int) *testableInstance {
	return buildInstance(t, func(config *Config) {
		config.MaxPerWindow = max
	})
}

func sumOf(values []uint64) uint64 {
	out := uint64(0)
	for _, v := range values {
		out += v
	}
	return out
}
