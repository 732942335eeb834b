package types

import (
	"sync"

	"golang.org/x/exp/rand"
)

// lockedSource serializes access to a source shared between trainers
type lockedSource struct {
	lock *sync.Mutex
	src  rand.Source
}

var _ rand.Source = &lockedSource{}

// NewLockedSource returns a seeded source that is safe to share between
// concurrently running policies
func NewLockedSource(seed uint64) rand.Source {
	return &lockedSource{
		lock: new(sync.Mutex),
		src:  rand.NewSource(seed),
	}
}

func (l *lockedSource) Uint64() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.src.Uint64()
}

func (l *lockedSource) Seed(seed uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.src.Seed(seed)
}
