package engine

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Clock stamps journaled turns with a strictly increasing seq. The seq
// column is unique across the whole journal, so a process writing to an
// existing journal must start after its highest seq (see ResumeClock).
//
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock for an empty journal; the first turn gets seq 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose next turn gets last+1.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// SeqSource reports the highest seq already journaled. *store.Store
// implements it.
type SeqSource interface {
	MaxSeq(ctx context.Context) (int64, error)
}

// ResumeClock positions a clock after the last turn in src.
func ResumeClock(ctx context.Context, src SeqSource) (*Clock, error) {
	last, err := src.MaxSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	return NewClockAt(last), nil
}

// Next returns the seq for the next turn.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the seq of the last stamped turn.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
