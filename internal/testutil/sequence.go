package testutil

import "sync"

// Sequence is a thread-safe monotonic counter for fixture identifiers.
//
// The first call to Next returns 1. Reset makes the sequence start over.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// Next increments and returns the next value.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last value handed out, or 0.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset resets the sequence to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
