package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/peterldowns/testy/check"

	"github.com/mcdev12/scotchauction/go/internal/models"
)

// fixedOracle always answers the same bid.
type fixedOracle struct {
	bid int
}

func (o fixedOracle) Bid(ctx context.Context, snap Snapshot) (int, error) {
	return o.bid, nil
}

// failingOracle always errors.
type failingOracle struct{}

func (failingOracle) Bid(ctx context.Context, snap Snapshot) (int, error) {
	return 0, errors.New("decision service unavailable")
}

// stuckOracle never answers until its context is cancelled.
type stuckOracle struct{}

func (stuckOracle) Bid(ctx context.Context, snap Snapshot) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func testSnapshot(balance int) Snapshot {
	return Snapshot{
		Ordinal:        models.Ordinal1,
		MarkerPosition: models.MarkerStart,
		TurnNumber:     1,
		MaxTurns:       5,
		Balance:        balance,
	}
}

func TestRunner_PassesThroughValidBid(t *testing.T) {
	r := NewRunner(map[string]Oracle{"fixed": fixedOracle{bid: 7}}, time.Second)

	bid := r.RequestBid(context.Background(), "fixed", testSnapshot(100))
	check.Equal(t, 7, bid)
}

func TestRunner_ClampsBidToBalance(t *testing.T) {
	r := NewRunner(map[string]Oracle{
		"over":  fixedOracle{bid: 500},
		"under": fixedOracle{bid: -3},
	}, time.Second)

	check.Equal(t, 100, r.RequestBid(context.Background(), "over", testSnapshot(100)))
	check.Equal(t, 0, r.RequestBid(context.Background(), "under", testSnapshot(100)))
}

func TestRunner_UnknownKindFallsBack(t *testing.T) {
	r := NewRunner(map[string]Oracle{}, time.Second)

	for i := 0; i < 20; i++ {
		bid := r.RequestBid(context.Background(), "nonexistent", testSnapshot(10))
		check.True(t, bid >= 0 && bid <= 10)
	}
}

func TestRunner_ErrorFallsBack(t *testing.T) {
	r := NewRunner(map[string]Oracle{"broken": failingOracle{}}, time.Second)

	for i := 0; i < 20; i++ {
		bid := r.RequestBid(context.Background(), "broken", testSnapshot(10))
		check.True(t, bid >= 0 && bid <= 10)
	}
}

func TestRunner_TimeoutFallsBack(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRunnerWithClock(map[string]Oracle{"stuck": stuckOracle{}}, time.Second, clock)

	done := make(chan int, 1)
	go func() {
		done <- r.RequestBid(context.Background(), "stuck", testSnapshot(10))
	}()

	// Wait for the runner to arm its timer, then fire it.
	clock.BlockUntil(1)
	clock.Advance(time.Second)

	select {
	case bid := <-done:
		check.True(t, bid >= 0 && bid <= 10)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not return after timeout fired")
	}
}

func TestRunner_ContextCancelFallsBack(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRunnerWithClock(map[string]Oracle{"stuck": stuckOracle{}}, time.Minute, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- r.RequestBid(ctx, "stuck", testSnapshot(10))
	}()

	clock.BlockUntil(1)
	cancel()

	select {
	case bid := <-done:
		check.True(t, bid >= 0 && bid <= 10)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not return after context cancel")
	}
}

func TestRunner_ZeroBalanceFallbackIsZero(t *testing.T) {
	r := NewRunner(map[string]Oracle{}, time.Second)

	check.Equal(t, 0, r.RequestBid(context.Background(), "nonexistent", testSnapshot(0)))
}
