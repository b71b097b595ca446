package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies wall time for row timestamps. Timestamps are metadata;
// no rule reads them.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sequence is a monotonic logical counter for assignment ordering.
//
// Every inserted assignment row is stamped with a strictly increasing seq
// from this counter. Rows within a period are read ORDER BY seq, id, so
// ordering never depends on wall-clock resolution.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence starting at 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceAt creates a sequence whose next value is start+1.
// Used to resume after the highest seq already stored.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number and increments the counter.
// Calls are linearizable - each call returns a unique, increasing value.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
