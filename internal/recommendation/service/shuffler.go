package service

import (
	"math/rand"
	"sync"
	"time"
)

// Shuffler permutes n items through swap. Implementations must be safe for
// concurrent use.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// RandShuffler is a uniform Fisher-Yates shuffle over a seedable source.
type RandShuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandShuffler returns a shuffler whose sequence is fixed by seed.
func NewRandShuffler(seed int64) *RandShuffler {
	return &RandShuffler{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // ordering only, not security sensitive
	}
}

// NewTimeSeededShuffler seeds from the clock for production use.
func NewTimeSeededShuffler() *RandShuffler {
	return NewRandShuffler(time.Now().UnixNano())
}

func (s *RandShuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}
