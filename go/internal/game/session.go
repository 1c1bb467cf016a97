package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scotchauction/go/internal/game/events"
	"github.com/mcdev12/scotchauction/go/internal/models"
)

// Config holds the per-session rules.
type Config struct {
	MaxTurns     int
	StartBalance int
	Settlement   models.SettlementRule
	ShowBids     bool
}

// WithDefaults fills zero-valued fields with the standard game rules.
func (c Config) WithDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = 5
	}
	if c.StartBalance <= 0 {
		c.StartBalance = 100
	}
	if c.Settlement == "" {
		c.Settlement = models.SettlementWinnerPays
	}
	return c
}

// EventSink receives session events for delivery. Broadcast events go to
// both participants and all spectators of the envelope's session; private
// events go only to the named participant's connection.
type EventSink interface {
	Broadcast(env *events.Envelope)
	SendPrivate(sessionID uuid.UUID, name string, env *events.Envelope)
}

// Store is the slice of the leaderboard collaborator the engine needs.
type Store interface {
	LoadRating(ctx context.Context, name string) (float64, error)
	RecordResult(ctx context.Context, name string, ratingDelta int, won bool) error
}

// Session is the authoritative state of one match. All mutating operations
// (Admit, SubmitBid, Forfeit) serialize on the session mutex, and turn
// resolution runs inside the same critical section as the second bid
// submission, so a turn can never resolve twice or observe a stale bid.
type Session struct {
	id  uuid.UUID
	cfg Config

	mu             sync.Mutex
	participants   [2]*models.Participant // index 0 holds ordinal 1
	markerPosition int
	turnNumber     int
	tieAdvantage   models.Ordinal
	history        []models.TurnRecord
	status         models.SessionStatus
	winnerOrdinal  models.Ordinal
	forfeitedName  string

	sink  EventSink
	store Store
}

// NewSession creates an empty session in the Waiting state.
func NewSession(id uuid.UUID, cfg Config, sink EventSink, store Store) *Session {
	return &Session{
		id:             id,
		cfg:            cfg.WithDefaults(),
		markerPosition: models.MarkerStart,
		turnNumber:     1,
		tieAdvantage:   models.Ordinal1,
		status:         models.SessionStatusWaiting,
		sink:           sink,
		store:          store,
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// ShowBids reports whether resolved-turn broadcasts include bid values.
func (s *Session) ShowBids() bool {
	return s.cfg.ShowBids
}

// Status returns the current lifecycle phase.
func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State returns the redacted session view used for spectator catch-up and
// lifecycle broadcasts.
func (s *Session) State() events.SessionStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statePayloadLocked()
}

// View returns a copy of the named participant's current state.
func (s *Session) View(name string) (models.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.byNameLocked(name); p != nil {
		return *p, true
	}
	return models.Participant{}, false
}

// UnsubmittedAutomated returns copies of the automated participants that
// have not yet submitted a bid for the current turn.
func (s *Session) UnsubmittedAutomated() []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.SessionStatusActive {
		return nil
	}
	var out []models.Participant
	for _, p := range s.participants {
		if p != nil && p.IsAutomated() && !p.Submitted {
			out = append(out, *p)
		}
	}
	return out
}

// History returns a copy of the turn records resolved so far.
func (s *Session) History() []models.TurnRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.TurnRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Names returns the participant names currently seated.
func (s *Session) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, p := range s.participants {
		if p != nil {
			out = append(out, p.Name)
		}
	}
	return out
}

// Admit seats a participant. The first seat keeps the session Waiting; the
// second fills it and transitions to Active. Admission into a full or
// non-Waiting session is rejected without mutating anything.
func (s *Session) Admit(p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.SessionStatusWaiting {
		return ErrWrongPhase
	}
	if s.participants[0] != nil && s.participants[1] != nil {
		return ErrSessionFull
	}

	p.Balance = s.cfg.StartBalance
	p.ClearBid()

	if s.participants[0] == nil {
		p.Ordinal = models.Ordinal1
		s.participants[0] = p
	} else {
		if s.participants[0].Name == p.Name {
			return ErrNameTaken
		}
		p.Ordinal = models.Ordinal2
		s.participants[1] = p
		s.status = models.SessionStatusActive
	}

	log.Info().
		Str("session_id", s.id.String()).
		Str("name", p.Name).
		Int("ordinal", int(p.Ordinal)).
		Str("status", string(s.status)).
		Msg("participant admitted")

	s.broadcastLocked(events.EventSessionState, s.statePayloadLocked())
	if s.status == models.SessionStatusActive {
		s.broadcastLocked(events.EventBidStatus, s.bidStatusLocked())
	}
	return nil
}

// SubmitBid records a bid for the current turn. When the second bid lands,
// the turn resolves synchronously before the mutex is released.
func (s *Session) SubmitBid(ctx context.Context, name string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.SessionStatusActive {
		return ErrNotActive
	}
	p := s.byNameLocked(name)
	if p == nil {
		return ErrUnknownParticipant
	}
	if amount < 0 {
		return ErrNegativeBid
	}
	if amount > p.Balance {
		return ErrBidExceedsBalance
	}
	if p.Submitted {
		return ErrAlreadySubmitted
	}

	p.PendingBid = amount
	p.Submitted = true

	log.Debug().
		Str("session_id", s.id.String()).
		Str("name", name).
		Int("turn", s.turnNumber).
		Msg("bid recorded")

	s.sendPrivateLocked(name, events.EventParticipantUpdate, events.ParticipantUpdatePayload{
		Balance: p.Balance,
		LastBid: amount,
	})
	s.broadcastLocked(events.EventBidStatus, s.bidStatusLocked())

	if s.participants[0].Submitted && s.participants[1].Submitted {
		s.resolveTurnLocked(ctx)
	}
	return nil
}

// Forfeit ends the session because the named participant vanished. An
// Active session finishes with the opponent as winner; a Waiting session
// is simply marked Finished so the registry discards it.
func (s *Session) Forfeit(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case models.SessionStatusFinished:
		return nil
	case models.SessionStatusWaiting:
		s.status = models.SessionStatusFinished
		log.Info().
			Str("session_id", s.id.String()).
			Str("name", name).
			Msg("waiting session discarded on disconnect")
		return nil
	}

	p := s.byNameLocked(name)
	if p == nil {
		return ErrUnknownParticipant
	}

	log.Info().
		Str("session_id", s.id.String()).
		Str("forfeited", name).
		Msg("participant forfeited")

	s.finishLocked(ctx, p.Ordinal.Other(), name)
	return nil
}

// finishLocked transitions the session to Finished exactly once: rating
// update, leaderboard persistence, and the final GAME_OVER broadcast.
// Caller must hold s.mu.
func (s *Session) finishLocked(ctx context.Context, winner models.Ordinal, forfeitedName string) {
	s.status = models.SessionStatusFinished
	s.winnerOrdinal = winner
	s.forfeitedName = forfeitedName

	w := s.participants[winner-1]
	l := s.participants[winner.Other()-1]

	res := UpdateRatings(w, l)
	s.recordResultLocked(ctx, w.Name, res.WinnerDelta, true)
	s.recordResultLocked(ctx, l.Name, res.LoserDelta, false)

	log.Info().
		Str("session_id", s.id.String()).
		Str("winner", w.Name).
		Int("winner_delta", res.WinnerDelta).
		Int("final_position", s.markerPosition).
		Msg("session finished")

	s.broadcastLocked(events.EventGameOver, events.GameOverPayload{
		History: s.history,
		FinalState: events.FinalState{
			Ordinal1Name:    s.participants[0].Name,
			Ordinal2Name:    s.participants[1].Name,
			Ordinal1Balance: s.participants[0].Balance,
			Ordinal2Balance: s.participants[1].Balance,
			FinalPosition:   s.markerPosition,
			WinnerName:      w.Name,
		},
		RatingDeltas: events.RatingDeltas{
			Winner: events.RatingChange{Name: w.Name, Delta: res.WinnerDelta, NewRating: res.WinnerRating},
			Loser:  events.RatingChange{Name: l.Name, Delta: res.LoserDelta, NewRating: res.LoserRating},
		},
		ForfeitedName: forfeitedName,
	})
}

// gameWinnerLocked determines the winner once a game-over condition holds.
// Boundary positions identify the winner directly; turn exhaustion falls
// back to marker half, then balance, then the current tie advantage.
func (s *Session) gameWinnerLocked() models.Ordinal {
	switch {
	case s.markerPosition == models.MarkerMin:
		return models.Ordinal1
	case s.markerPosition == models.MarkerMax:
		return models.Ordinal2
	case s.markerPosition < models.MarkerStart:
		return models.Ordinal1
	case s.markerPosition > models.MarkerStart:
		return models.Ordinal2
	case s.participants[0].Balance > s.participants[1].Balance:
		return models.Ordinal1
	case s.participants[1].Balance > s.participants[0].Balance:
		return models.Ordinal2
	default:
		return s.tieAdvantage
	}
}

func (s *Session) recordResultLocked(ctx context.Context, name string, delta int, won bool) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordResult(ctx, name, delta, won); err != nil {
		log.Error().
			Err(err).
			Str("session_id", s.id.String()).
			Str("name", name).
			Msg("failed to persist game result")
	}
}

func (s *Session) byNameLocked(name string) *models.Participant {
	for _, p := range s.participants {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

func (s *Session) statePayloadLocked() events.SessionStatePayload {
	return events.SessionStatePayload{
		TurnNumber:     s.turnNumber,
		MaxTurns:       s.cfg.MaxTurns,
		MarkerPosition: s.markerPosition,
		Status:         s.status,
	}
}

func (s *Session) bidStatusLocked() events.BidStatusPayload {
	return events.BidStatusPayload{
		Ordinal1Name:      s.participants[0].Name,
		Ordinal2Name:      s.participants[1].Name,
		Ordinal1Submitted: s.participants[0].Submitted,
		Ordinal2Submitted: s.participants[1].Submitted,
		TurnNumber:        s.turnNumber,
	}
}

func (s *Session) broadcastLocked(t events.EventType, payload any) {
	if s.sink == nil {
		return
	}
	env, err := events.New(s.id, t, payload)
	if err != nil {
		log.Error().Err(err).Str("session_id", s.id.String()).Msg("failed to build event")
		return
	}
	s.sink.Broadcast(env)
}

func (s *Session) sendPrivateLocked(name string, t events.EventType, payload any) {
	if s.sink == nil {
		return
	}
	env, err := events.New(s.id, t, payload)
	if err != nil {
		log.Error().Err(err).Str("session_id", s.id.String()).Msg("failed to build event")
		return
	}
	s.sink.SendPrivate(s.id, name, env)
}
