package oracle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 5 * time.Second

// Runner bounds oracle calls with a timeout and substitutes a uniformly
// random fallback bid on timeout or error, so a turn can never stall on a
// slow or broken oracle. Oracle failures are a degraded-mode event, never
// a game error.
type Runner struct {
	oracles map[string]Oracle
	clock   clockwork.Clock
	timeout time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRunner creates a Runner over the given oracles, keyed by kind.
func NewRunner(oracles map[string]Oracle, timeout time.Duration) *Runner {
	return NewRunnerWithClock(oracles, timeout, clockwork.NewRealClock())
}

// NewRunnerWithClock is NewRunner with an injectable clock for tests.
func NewRunnerWithClock(oracles map[string]Oracle, timeout time.Duration, clock clockwork.Clock) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		oracles: oracles,
		clock:   clock,
		timeout: timeout,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RequestBid resolves a concrete bid for the snapshot: the oracle's answer
// clamped to [0, balance], or the fallback when the oracle is unknown,
// errors, or misses the deadline.
func (r *Runner) RequestBid(ctx context.Context, kind string, snap Snapshot) int {
	o, ok := r.oracles[kind]
	if !ok {
		log.Warn().
			Str("oracle_kind", kind).
			Str("session_id", snap.SessionID.String()).
			Msg("unknown oracle kind, using fallback bid")
		return r.fallback(snap.Balance)
	}

	type result struct {
		bid int
		err error
	}
	resultCh := make(chan result, 1)

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		bid, err := o.Bid(callCtx, snap)
		resultCh <- result{bid: bid, err: err}
	}()

	timer := r.clock.NewTimer(r.timeout)
	defer stopAndDrainTimer(timer)

	select {
	case res := <-resultCh:
		if res.err != nil {
			log.Warn().
				Err(res.err).
				Str("oracle_kind", kind).
				Str("session_id", snap.SessionID.String()).
				Msg("oracle failed, using fallback bid")
			return r.fallback(snap.Balance)
		}
		return clampBid(res.bid, snap.Balance)
	case <-timer.Chan():
		log.Warn().
			Str("oracle_kind", kind).
			Str("session_id", snap.SessionID.String()).
			Dur("timeout", r.timeout).
			Msg("oracle timed out, using fallback bid")
		return r.fallback(snap.Balance)
	case <-ctx.Done():
		return r.fallback(snap.Balance)
	}
}

func (r *Runner) fallback(balance int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(balance + 1)
}

func clampBid(bid, balance int) int {
	if bid < 0 {
		return 0
	}
	if bid > balance {
		return balance
	}
	return bid
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent
// goroutine leaks.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
