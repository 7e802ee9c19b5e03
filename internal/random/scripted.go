package random

import "sync"

// Scripted replays fixed values, cycling when exhausted. Tests use it to
// force both branches of probabilistic rules.
type Scripted struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
	fi, ii int
}

// NewScripted returns a source that yields floats for Float64 and ints
// (reduced modulo n) for Intn. Empty slices yield zero.
func NewScripted(floats []float64, ints []int) *Scripted {
	return &Scripted{floats: floats, ints: ints}
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *Scripted) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 || n <= 0 {
		return 0
	}
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}
