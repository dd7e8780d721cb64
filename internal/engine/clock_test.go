package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slotform/internal/store"
)

func TestClock_FirstTurnIsSeqOne(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(1), c.Current())
}

func TestClock_ResumeContinuesJournal(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t)

	first := NewExecutor(WithLogger(quietLogger()), WithJournal(j), WithClock(NewClock()))
	_, err := first.RegisterForm(weatherForm())
	require.NoError(t, err)
	for _, sender := range []string{"u1", "u2"} {
		_, err := first.Run(ctx, Request{NextAction: "weather_form", Tracker: listening(sender), Version: SupportedVersion})
		require.NoError(t, err)
	}

	clock, err := ResumeClock(ctx, j)
	require.NoError(t, err)
	assert.Equal(t, int64(2), clock.Current())

	second := NewExecutor(WithLogger(quietLogger()), WithJournal(j), WithClock(clock))
	_, err = second.RegisterForm(weatherForm())
	require.NoError(t, err)
	_, err = second.Run(ctx, Request{NextAction: "weather_form", Tracker: listening("u1"), Version: SupportedVersion})
	require.NoError(t, err)

	turns, err := j.ReadTurns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, int64(1), turns[0].Seq)
	assert.Equal(t, int64(3), turns[1].Seq)
}

func TestClock_ResumeEmptyJournal(t *testing.T) {
	clock, err := ResumeClock(context.Background(), openJournal(t))
	require.NoError(t, err)
	assert.Equal(t, int64(1), clock.Next())
}

type failingSeqSource struct{}

func (failingSeqSource) MaxSeq(context.Context) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestClock_ResumePropagatesError(t *testing.T) {
	_, err := ResumeClock(context.Background(), failingSeqSource{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestClock_ConcurrentTurnsGetDistinctSeqs(t *testing.T) {
	c := NewClockAt(500)
	const workers, calls = 20, 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				seq := c.Next()
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(500+workers*calls), c.Current())
	assert.False(t, seen[500], "seqs must start after the resume point")
}

var _ SeqSource = (*store.Store)(nil)
