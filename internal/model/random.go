package model

import (
	"sync"
	"time"
)

// Rand is the source of the placeholder scores, match percentages and
// activity timestamps. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Clock returns the current time.
type Clock func() time.Time

// RandRange returns a value in [lo, lo+span).
func RandRange(r Rand, lo, span int) int {
	return lo + r.IntN(span)
}

type lockedRand struct {
	mu sync.Mutex
	r  Rand
}

// LockedRand wraps r so it can be shared between request goroutines.
func LockedRand(r Rand) Rand {
	return &lockedRand{r: r}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
