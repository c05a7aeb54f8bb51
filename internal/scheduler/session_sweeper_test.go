package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvicter struct {
	mu      sync.Mutex
	calls   int
	maxIdle time.Duration
}

func (f *fakeEvicter) EvictIdle(maxIdle time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.maxIdle = maxIdle
	return 2
}

func (f *fakeEvicter) snapshot() (int, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.maxIdle
}

func TestSessionSweeper_RunNow(t *testing.T) {
	evicter := &fakeEvicter{}
	sweeper := NewSessionSweeper(evicter, "@every 1h", 30*time.Minute)

	assert.Equal(t, 2, sweeper.RunNow())

	calls, maxIdle := evicter.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 30*time.Minute, maxIdle)
}

func TestSessionSweeper_RunsOnSchedule(t *testing.T) {
	evicter := &fakeEvicter{}
	sweeper := NewSessionSweeper(evicter, "@every 1s", time.Minute)

	require.NoError(t, sweeper.Start())
	t.Cleanup(sweeper.Stop)

	assert.Eventually(t, func() bool {
		calls, _ := evicter.snapshot()
		return calls >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSessionSweeper_InvalidSchedule(t *testing.T) {
	sweeper := NewSessionSweeper(&fakeEvicter{}, "not a schedule", time.Minute)

	assert.Error(t, sweeper.Start())
}
