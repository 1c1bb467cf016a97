package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/mcdev12/scotchauction/go/internal/game/events"
	"github.com/mcdev12/scotchauction/go/internal/leaderboard"
	"github.com/mcdev12/scotchauction/go/internal/models"
)

// sinkRecorder captures emitted events for assertions.
type sinkRecorder struct {
	mu         sync.Mutex
	broadcasts []*events.Envelope
	privates   map[string][]*events.Envelope
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{privates: make(map[string][]*events.Envelope)}
}

func (r *sinkRecorder) Broadcast(env *events.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, env)
}

func (r *sinkRecorder) SendPrivate(sessionID uuid.UUID, name string, env *events.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.privates[name] = append(r.privates[name], env)
}

func (r *sinkRecorder) byType(t events.EventType) []*events.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*events.Envelope
	for _, env := range r.broadcasts {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}

func (r *sinkRecorder) lastOfType(t events.EventType) *events.Envelope {
	envs := r.byType(t)
	if len(envs) == 0 {
		return nil
	}
	return envs[len(envs)-1]
}

func newTestSession(t *testing.T, cfg Config) (*Session, *sinkRecorder) {
	t.Helper()
	sink := newSinkRecorder()
	s := NewSession(uuid.New(), cfg, sink, leaderboard.NewMemoryStore())
	return s, sink
}

func admitPair(t *testing.T, s *Session) {
	t.Helper()
	assert.NoError(t, s.Admit(&models.Participant{Name: "alice", Kind: models.ParticipantKindHuman, Rating: models.DefaultRating}))
	assert.NoError(t, s.Admit(&models.Participant{Name: "bob", Kind: models.ParticipantKindHuman, Rating: models.DefaultRating}))
}

func submit(t *testing.T, s *Session, name string, amount int) {
	t.Helper()
	assert.NoError(t, s.SubmitBid(context.Background(), name, amount))
}

func TestAdmit_Lifecycle(t *testing.T) {
	s, _ := newTestSession(t, Config{})

	check.Equal(t, models.SessionStatusWaiting, s.Status())

	err := s.Admit(&models.Participant{Name: "alice"})
	assert.NoError(t, err)
	check.Equal(t, models.SessionStatusWaiting, s.Status())

	err = s.Admit(&models.Participant{Name: "bob"})
	assert.NoError(t, err)
	check.Equal(t, models.SessionStatusActive, s.Status())

	alice, ok := s.View("alice")
	assert.True(t, ok)
	check.Equal(t, models.Ordinal1, alice.Ordinal)
	check.Equal(t, 100, alice.Balance)

	bob, ok := s.View("bob")
	assert.True(t, ok)
	check.Equal(t, models.Ordinal2, bob.Ordinal)
}

func TestAdmit_Rejections(t *testing.T) {
	s, _ := newTestSession(t, Config{})

	assert.NoError(t, s.Admit(&models.Participant{Name: "alice"}))

	// Same name cannot take the second seat.
	err := s.Admit(&models.Participant{Name: "alice"})
	check.True(t, errors.Is(err, ErrNameTaken))

	assert.NoError(t, s.Admit(&models.Participant{Name: "bob"}))

	// Third seat does not exist.
	err = s.Admit(&models.Participant{Name: "carol"})
	check.True(t, errors.Is(err, ErrWrongPhase))
	check.Equal(t, models.SessionStatusActive, s.Status())
}

func TestSubmitBid_Validation(t *testing.T) {
	s, _ := newTestSession(t, Config{})

	// Bids before the session is active are rejected.
	err := s.SubmitBid(context.Background(), "alice", 10)
	check.True(t, errors.Is(err, ErrNotActive))

	admitPair(t, s)

	check.True(t, errors.Is(s.SubmitBid(context.Background(), "mallory", 10), ErrUnknownParticipant))
	check.True(t, errors.Is(s.SubmitBid(context.Background(), "alice", -1), ErrNegativeBid))
	check.True(t, errors.Is(s.SubmitBid(context.Background(), "alice", 101), ErrBidExceedsBalance))

	submit(t, s, "alice", 10)

	// A second submission in the same turn is rejected and does not
	// overwrite the first bid.
	check.True(t, errors.Is(s.SubmitBid(context.Background(), "alice", 99), ErrAlreadySubmitted))

	submit(t, s, "bob", 5)
	history := s.History()
	assert.Equal(t, 1, len(history))
	check.Equal(t, 10, history[0].Bid1)
}

func TestResolveTurn_WinnerPaysOnly(t *testing.T) {
	s, _ := newTestSession(t, Config{})
	admitPair(t, s)

	submit(t, s, "alice", 10)
	submit(t, s, "bob", 5)

	history := s.History()
	assert.Equal(t, 1, len(history))
	rec := history[0]

	check.Equal(t, models.Ordinal1, rec.WinnerOrdinal)
	check.False(t, rec.TieUsed)
	check.Equal(t, 5, rec.OldPosition)
	check.Equal(t, 4, rec.NewPosition)
	check.Equal(t, 90, rec.Balance1After)
	// The loser keeps their money.
	check.Equal(t, 100, rec.Balance2After)
}

func TestResolveTurn_BothPayVariant(t *testing.T) {
	s, _ := newTestSession(t, Config{Settlement: models.SettlementBothPay})
	admitPair(t, s)

	submit(t, s, "alice", 10)
	submit(t, s, "bob", 5)

	rec := s.History()[0]
	check.Equal(t, 90, rec.Balance1After)
	check.Equal(t, 95, rec.Balance2After)
}

func TestResolveTurn_TieAdvantageAlternates(t *testing.T) {
	s, _ := newTestSession(t, Config{MaxTurns: 100})
	admitPair(t, s)

	// Every turn ties; the winner must strictly alternate per tie.
	want := models.Ordinal1
	for turn := 0; turn < 6; turn++ {
		submit(t, s, "alice", 3)
		submit(t, s, "bob", 3)

		history := s.History()
		rec := history[len(history)-1]
		check.True(t, rec.TieUsed)
		check.Equal(t, want, rec.WinnerOrdinal)
		want = want.Other()
	}
}

func TestResolveTurn_ZeroBidLosesTieAgainstNothing(t *testing.T) {
	s, _ := newTestSession(t, Config{})
	admitPair(t, s)

	// A zero bid still loses to any nonzero bid.
	submit(t, s, "alice", 0)
	submit(t, s, "bob", 1)

	rec := s.History()[0]
	check.Equal(t, models.Ordinal2, rec.WinnerOrdinal)
	check.False(t, rec.TieUsed)
}

func TestMarkerStaysInBounds(t *testing.T) {
	s, _ := newTestSession(t, Config{MaxTurns: 50})
	admitPair(t, s)

	for s.Status() == models.SessionStatusActive {
		submit(t, s, "alice", 1)
		submit(t, s, "bob", 0)
	}

	for _, rec := range s.History() {
		check.True(t, rec.NewPosition >= models.MarkerMin)
		check.True(t, rec.NewPosition <= models.MarkerMax)
		diff := rec.NewPosition - rec.OldPosition
		check.True(t, diff == 1 || diff == -1)
	}
	// Alice wins every turn, so the game ends at her boundary.
	final := s.History()[len(s.History())-1]
	check.Equal(t, models.MarkerMin, final.NewPosition)
}

func TestScenario_AllTiesEndsByExhaustion(t *testing.T) {
	s, sink := newTestSession(t, Config{MaxTurns: 5})
	admitPair(t, s)

	for turn := 0; turn < 5; turn++ {
		submit(t, s, "alice", 0)
		submit(t, s, "bob", 0)
	}

	check.Equal(t, models.SessionStatusFinished, s.Status())

	history := s.History()
	assert.Equal(t, 5, len(history))

	wantWinners := []models.Ordinal{1, 2, 1, 2, 1}
	wantPositions := []int{4, 5, 4, 5, 4}
	for i, rec := range history {
		check.Equal(t, wantWinners[i], rec.WinnerOrdinal)
		check.Equal(t, wantPositions[i], rec.NewPosition)
	}

	env := sink.lastOfType(events.EventGameOver)
	assert.NotNil(t, env)
	payload, err := env.Payload()
	assert.NoError(t, err)
	gameOver := payload.(events.GameOverPayload)

	// Marker at 4 is on ordinal 1's half, so alice wins.
	check.Equal(t, "alice", gameOver.FinalState.WinnerName)
	check.Equal(t, 4, gameOver.FinalState.FinalPosition)
	check.Equal(t, "", gameOver.ForfeitedName)
	check.Equal(t, 0, gameOver.RatingDeltas.Winner.Delta+gameOver.RatingDeltas.Loser.Delta)
}

func TestScenario_BoundaryHitOnFinalTurn(t *testing.T) {
	s, sink := newTestSession(t, Config{MaxTurns: 5})
	admitPair(t, s)

	for turn := 0; turn < 5; turn++ {
		submit(t, s, "alice", 10)
		submit(t, s, "bob", 5)
	}

	check.Equal(t, models.SessionStatusFinished, s.Status())

	history := s.History()
	assert.Equal(t, 5, len(history))
	wantPositions := []int{4, 3, 2, 1, 0}
	for i, rec := range history {
		check.Equal(t, models.Ordinal1, rec.WinnerOrdinal)
		check.Equal(t, wantPositions[i], rec.NewPosition)
	}

	alice, _ := s.View("alice")
	bob, _ := s.View("bob")
	check.Equal(t, 50, alice.Balance)
	check.Equal(t, 100, bob.Balance)

	env := sink.lastOfType(events.EventGameOver)
	assert.NotNil(t, env)
	payload, err := env.Payload()
	assert.NoError(t, err)
	check.Equal(t, "alice", payload.(events.GameOverPayload).FinalState.WinnerName)
}

func TestGameOver_MidpointFallsBackToBalanceThenAdvantage(t *testing.T) {
	// One turn each way leaves the marker at the midpoint; bob spent less
	// so bob wins on balance.
	s, sink := newTestSession(t, Config{MaxTurns: 2})
	admitPair(t, s)

	submit(t, s, "alice", 10)
	submit(t, s, "bob", 5)
	submit(t, s, "alice", 2)
	submit(t, s, "bob", 8)

	check.Equal(t, models.SessionStatusFinished, s.Status())
	env := sink.lastOfType(events.EventGameOver)
	assert.NotNil(t, env)
	payload, err := env.Payload()
	assert.NoError(t, err)
	check.Equal(t, "bob", payload.(events.GameOverPayload).FinalState.WinnerName)
}

func TestGameOver_MidpointEqualBalancesUsesAdvantage(t *testing.T) {
	// All-tie zero bids with an even turn count: marker back at 5,
	// balances equal. Two ties flipped the advantage twice, so ordinal 1
	// holds it again and wins.
	s, sink := newTestSession(t, Config{MaxTurns: 2})
	admitPair(t, s)

	submit(t, s, "alice", 0)
	submit(t, s, "bob", 0)
	submit(t, s, "alice", 0)
	submit(t, s, "bob", 0)

	check.Equal(t, models.SessionStatusFinished, s.Status())
	env := sink.lastOfType(events.EventGameOver)
	assert.NotNil(t, env)
	payload, err := env.Payload()
	assert.NoError(t, err)
	check.Equal(t, "alice", payload.(events.GameOverPayload).FinalState.WinnerName)
}

func TestForfeit_ActiveSession(t *testing.T) {
	s, sink := newTestSession(t, Config{})
	admitPair(t, s)

	submit(t, s, "alice", 10)

	assert.NoError(t, s.Forfeit(context.Background(), "alice"))
	check.Equal(t, models.SessionStatusFinished, s.Status())

	env := sink.lastOfType(events.EventGameOver)
	assert.NotNil(t, env)
	payload, err := env.Payload()
	assert.NoError(t, err)
	gameOver := payload.(events.GameOverPayload)
	check.Equal(t, "alice", gameOver.ForfeitedName)
	check.Equal(t, "bob", gameOver.FinalState.WinnerName)

	// The session is terminal; no further bids are processed.
	check.True(t, errors.Is(s.SubmitBid(context.Background(), "bob", 1), ErrNotActive))
}

func TestForfeit_WaitingSessionIsDiscarded(t *testing.T) {
	s, sink := newTestSession(t, Config{})
	assert.NoError(t, s.Admit(&models.Participant{Name: "alice"}))

	assert.NoError(t, s.Forfeit(context.Background(), "alice"))
	check.Equal(t, models.SessionStatusFinished, s.Status())

	// No game was played, so no GAME_OVER is broadcast.
	check.Equal(t, 0, len(sink.byType(events.EventGameOver)))
}

func TestBroadcast_BidStatusNeverRevealsAmounts(t *testing.T) {
	s, sink := newTestSession(t, Config{})
	admitPair(t, s)

	submit(t, s, "alice", 42)

	env := sink.lastOfType(events.EventBidStatus)
	assert.NotNil(t, env)
	payload, err := env.Payload()
	assert.NoError(t, err)
	status := payload.(events.BidStatusPayload)

	check.True(t, status.Ordinal1Submitted)
	check.False(t, status.Ordinal2Submitted)
	// The raw payload must not leak the amount anywhere.
	check.False(t, containsNumber(env.Data, 42))
}

func TestBroadcast_TurnResolvedHidesBidsByDefault(t *testing.T) {
	s, sink := newTestSession(t, Config{})
	admitPair(t, s)

	submit(t, s, "alice", 10)
	submit(t, s, "bob", 5)

	env := sink.lastOfType(events.EventTurnResolved)
	assert.NotNil(t, env)
	payload, err := env.Payload()
	assert.NoError(t, err)
	resolved := payload.(events.TurnResolvedPayload)
	check.Nil(t, resolved.Bid1)
	check.Nil(t, resolved.Bid2)
}

func TestBroadcast_TurnResolvedShowsBidsWhenEnabled(t *testing.T) {
	s, sink := newTestSession(t, Config{ShowBids: true})
	admitPair(t, s)

	submit(t, s, "alice", 10)
	submit(t, s, "bob", 5)

	env := sink.lastOfType(events.EventTurnResolved)
	assert.NotNil(t, env)
	payload, err := env.Payload()
	assert.NoError(t, err)
	resolved := payload.(events.TurnResolvedPayload)
	assert.NotNil(t, resolved.Bid1)
	assert.NotNil(t, resolved.Bid2)
	check.Equal(t, 10, *resolved.Bid1)
	check.Equal(t, 5, *resolved.Bid2)
}

func TestPrivateUpdates_GoToOwnerOnly(t *testing.T) {
	s, sink := newTestSession(t, Config{})
	admitPair(t, s)

	submit(t, s, "alice", 42)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	check.Equal(t, 1, len(sink.privates["alice"]))
	check.Equal(t, 0, len(sink.privates["bob"]))
}

// containsNumber reports whether the raw JSON contains the value as a
// bare number field.
func containsNumber(data []byte, n int) bool {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return false
	}
	for _, v := range m {
		if f, ok := v.(float64); ok && int(f) == n {
			return true
		}
	}
	return false
}
