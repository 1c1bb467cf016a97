package oracle

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RandomOracle bids a uniformly random amount in [0, balance].
type RandomOracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomOracle constructs a RandomOracle with its own seed.
func NewRandomOracle() *RandomOracle {
	return &RandomOracle{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Bid implements Oracle.
func (o *RandomOracle) Bid(ctx context.Context, snap Snapshot) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rng.Intn(snap.Balance + 1), nil
}
