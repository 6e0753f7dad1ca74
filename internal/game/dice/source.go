package dice

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
)

// mustPositive enforces the Intn precondition shared by every Source here.
func mustPositive(n int) {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
}

// cryptoSource draws from crypto/rand. It is the default for live encounters.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn panics if n <= 0 or if crypto/rand fails.
func (cryptoSource) Intn(n int) int {
	mustPositive(n)
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource is a deterministic math/rand generator, used when
// battle.seed is set so an encounter can be replayed.
type seededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic Source seeded with seed.
//
// Postcondition: Two sources created with the same seed produce the same sequence.
func NewSeededSource(seed int64) Source {
	return &seededSource{rng: mrand.New(mrand.NewSource(seed))}
}

// Intn panics if n <= 0.
func (s *seededSource) Intn(n int) int {
	mustPositive(n)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
