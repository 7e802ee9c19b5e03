// Package random provides the injectable random source used by game rules
// that roll dice (personality bonuses, chat rewards, template picks).
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Source is the subset of *rand.Rand the game needs.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Locked wraps a *rand.Rand so it can be shared across goroutines.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a goroutine-safe source seeded with seed.
func New(seed int64) *Locked {
	return &Locked{r: rand.New(rand.NewSource(seed))}
}

// NewSeeded returns a source seeded from crypto/rand, falling back to a
// fixed seed if the system entropy pool cannot be read.
func NewSeeded() *Locked {
	seed, err := NewSeed()
	if err != nil {
		seed = 1
	}
	return New(seed)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
