package logger

import "sync"

// debugSampler passes the first keep records of each run of every records.
// A zero ratio passes everything.
type debugSampler struct {
	mu    sync.Mutex
	keep  int
	every int
	seen  int
}

func newDebugSampler(keep, every int) *debugSampler {
	s := &debugSampler{}
	s.Set(keep, every)
	return s
}

// Set replaces the ratio and restarts the cycle. keep is capped at every.
func (s *debugSampler) Set(keep, every int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = 0
	if keep <= 0 || every <= 0 {
		s.keep, s.every = 0, 0
		return
	}
	s.keep, s.every = min(keep, every), every
}

// Allow reports whether the next record passes.
func (s *debugSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.every == 0 {
		return true
	}
	s.seen = s.seen%s.every + 1
	return s.seen <= s.keep
}
