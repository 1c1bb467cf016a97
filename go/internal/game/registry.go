package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scotchauction/go/internal/models"
)

// AdmitRequest carries an authorized admission into the registry. The
// credential check itself happens before this point; the passcode here is
// only the matchmaking key that pairs two participants into one session.
type AdmitRequest struct {
	Name       string
	Passcode   string
	Kind       models.ParticipantKind
	OracleKind string
	ShowBids   bool
}

// Registry owns all in-flight sessions, keyed by session id. Waiting
// sessions are additionally indexed by passcode for matchmaking, and
// seated participants by name so inbound bids can be routed. Sessions
// share no mutable state with each other besides the leaderboard store.
type Registry struct {
	cfg   Config
	sink  EventSink
	store Store

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	waiting  map[string]uuid.UUID
	byName   map[string]uuid.UUID
}

// NewRegistry creates an empty session registry.
func NewRegistry(cfg Config, sink EventSink, store Store) *Registry {
	return &Registry{
		cfg:      cfg.WithDefaults(),
		sink:     sink,
		store:    store,
		sessions: make(map[uuid.UUID]*Session),
		waiting:  make(map[string]uuid.UUID),
		byName:   make(map[string]uuid.UUID),
	}
}

// Admit seats a participant, creating a fresh Waiting session when no
// session is waiting on the request's passcode. The first participant of a
// session fixes its show-bids option.
func (r *Registry) Admit(ctx context.Context, req AdmitRequest) (*Session, models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[req.Name]; taken {
		return nil, models.Participant{}, ErrNameTaken
	}

	rating, err := r.store.LoadRating(ctx, req.Name)
	if err != nil {
		log.Warn().Err(err).Str("name", req.Name).Msg("failed to load rating, using default")
		rating = models.DefaultRating
	}

	p := &models.Participant{
		Name:       req.Name,
		Kind:       req.Kind,
		OracleKind: req.OracleKind,
		Rating:     rating,
	}

	var s *Session
	if id, ok := r.waiting[req.Passcode]; ok {
		s = r.sessions[id]
		if err := s.Admit(p); err != nil {
			return nil, models.Participant{}, err
		}
		delete(r.waiting, req.Passcode)
	} else {
		cfg := r.cfg
		cfg.ShowBids = req.ShowBids
		s = NewSession(uuid.New(), cfg, r.sink, r.store)
		if err := s.Admit(p); err != nil {
			return nil, models.Participant{}, err
		}
		r.sessions[s.ID()] = s
		r.waiting[req.Passcode] = s.ID()

		log.Info().
			Str("session_id", s.ID().String()).
			Str("name", req.Name).
			Msg("created waiting session")
	}

	r.byName[req.Name] = s.ID()
	view, _ := s.View(req.Name)
	return s, view, nil
}

// SessionByName returns the session the named participant is seated in.
func (r *Registry) SessionByName(name string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// Session returns a session by id.
func (r *Registry) Session(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// AnyActive returns an arbitrary Active session, for spectators that did
// not name one.
func (r *Registry) AnyActive() (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.Status() == models.SessionStatusActive {
			return s, true
		}
	}
	return nil, false
}

// Release drops a session from the registry once its final broadcast has
// been delivered, unbinding its participant names and any waiting slot.
func (r *Registry) Release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range s.Names() {
		if id, ok := r.byName[name]; ok && id == s.ID() {
			delete(r.byName, name)
		}
	}
	for passcode, id := range r.waiting {
		if id == s.ID() {
			delete(r.waiting, passcode)
		}
	}
	delete(r.sessions, s.ID())

	log.Debug().Str("session_id", s.ID().String()).Msg("session released")
}
