package oracle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/mcdev12/scotchauction/go/internal/models"
)

// HeuristicOracle bids a share of its balance proportional to how far the
// marker sits from its goal: the more ground left to cover, the harder it
// pushes. A small random factor keeps it from being trivially exploitable.
type HeuristicOracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristicOracle constructs a HeuristicOracle with its own seed.
func NewHeuristicOracle() *HeuristicOracle {
	return &HeuristicOracle{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Bid implements Oracle.
func (o *HeuristicOracle) Bid(ctx context.Context, snap Snapshot) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var share float64
	if snap.Ordinal == models.Ordinal1 {
		share = float64(snap.MarkerPosition) / float64(models.MarkerMax)
	} else {
		share = float64(models.MarkerMax-snap.MarkerPosition) / float64(models.MarkerMax)
	}
	share *= 0.8 + 0.4*o.rng.Float64()

	bid := int(float64(snap.Balance) * share)
	if bid == 0 && snap.Balance > 0 {
		bid = 1
	}
	if bid > snap.Balance {
		bid = snap.Balance
	}
	return bid, nil
}
