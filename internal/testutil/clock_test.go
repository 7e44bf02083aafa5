package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Calls())
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_AdvancesOneSecond(t *testing.T) {
	clock := NewDeterministicClock()

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Now())
	assert.Equal(t, int64(3), clock.Calls())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, int64(0), clock.Calls())
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var mu sync.Mutex
	seen := make(map[time.Time]bool)

	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range callsPerGoroutine {
				now := clock.Now()
				mu.Lock()
				seen[now] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, numGoroutines*callsPerGoroutine)
	assert.True(t, seen[Epoch])
}
