package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slotform/internal/engine"
)

var (
	_ engine.Sequencer      = (*DeterministicClock)(nil)
	_ engine.TokenGenerator = (*FixedTokenGenerator)(nil)
)

func TestDeterministicClock_Sequence(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())

	for want := int64(1); want <= 3; want++ {
		assert.Equal(t, want, clock.Next())
	}
	assert.Equal(t, int64(3), clock.Current())
}

func TestDeterministicClock_ResetReplaysSameSeqs(t *testing.T) {
	clock := NewDeterministicClock()
	first := []int64{clock.Next(), clock.Next()}

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	second := []int64{clock.Next(), clock.Next()}

	assert.Equal(t, first, second)
}

func TestDeterministicClock_ConcurrentNextIsUnique(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, calls = 50, 100

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				v := clock.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), clock.Current())
}
