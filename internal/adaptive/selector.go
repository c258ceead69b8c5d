package adaptive

import (
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultJitter is the half-width of the uniform jitter around the skill.
const DefaultJitter = 0.3

// RandSource supplies uniform draws in [0, 1).
type RandSource interface {
	Float64() float64
}

// Selector picks the next target difficulty from the current skill.
type Selector struct {
	rng    RandSource
	jitter float64
}

// NewSelector builds a selector drawing from rng. A negative jitter falls back
// to DefaultJitter.
func NewSelector(rng RandSource, jitter float64) *Selector {
	if jitter < 0 {
		jitter = DefaultJitter
	}
	return &Selector{rng: rng, jitter: jitter}
}

// Next returns skill plus uniform jitter in [-jitter, +jitter), clamped to [1, 10].
func (s *Selector) Next(skill float64) float64 {
	offset := (s.rng.Float64() - 0.5) * 2 * s.jitter
	return clampSkill(skill + offset)
}

// lockedSource makes a *rand.Rand safe for concurrent request handlers.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// NewSeededSource returns a deterministic, concurrency-safe source.
func NewSeededSource(seed1, seed2 uint64) RandSource {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// NewClockSource returns a source seeded from the wall clock.
func NewClockSource() RandSource {
	now := uint64(time.Now().UnixNano())
	return NewSeededSource(now, now>>17|now<<47)
}
