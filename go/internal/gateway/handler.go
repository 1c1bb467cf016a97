package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scotchauction/go/internal/game"
	"github.com/mcdev12/scotchauction/go/internal/game/events"
	"github.com/mcdev12/scotchauction/go/internal/leaderboard"
	"github.com/mcdev12/scotchauction/go/internal/models"
	"github.com/mcdev12/scotchauction/go/internal/oracle"
)

const (
	storeTimeout     = 2 * time.Second
	leaderboardLimit = 10
)

// Handler routes inbound client messages to the session registry and
// triggers oracle bids for automated participants. Every rejection goes
// only to the offending connection.
type Handler struct {
	registry *game.Registry
	cm       *ConnectionManager
	sink     game.EventSink
	runner   *oracle.Runner
	store    leaderboard.Store
}

// NewHandler creates a Handler and wires it into the connection manager.
func NewHandler(registry *game.Registry, cm *ConnectionManager, sink game.EventSink, runner *oracle.Runner, store leaderboard.Store) *Handler {
	h := &Handler{
		registry: registry,
		cm:       cm,
		sink:     sink,
		runner:   runner,
		store:    store,
	}
	cm.SetHandler(h)
	return h
}

// ServeWS handles WebSocket upgrade requests.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if err := h.cm.UpgradeConnection(w, r); err != nil {
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// RegisterRoutes registers the gateway routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.ServeWS)
}

// HandleMessage implements MessageHandler.
func (h *Handler) HandleMessage(conn *Connection, data []byte) {
	msg, err := DecodeInbound(data)
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", conn.ID).
			Msg("rejected inbound message")
		h.sendError(conn, err.Error())
		return
	}

	switch req := msg.(type) {
	case LoginRequest:
		h.handleLogin(conn, req)
	case SpectateRequest:
		h.handleSpectate(conn, req)
	case SubmitBidRequest:
		h.handleBid(conn, req)
	case LeaderboardRequest:
		h.handleLeaderboard(conn, req)
	}
}

// HandleDisconnect implements MessageHandler. A vanished participant is an
// implicit forfeit: the session must not wait for a bid that will never
// arrive.
func (h *Handler) HandleDisconnect(conn *Connection) {
	name := conn.ParticipantName()
	if name == "" {
		return
	}

	s, ok := h.registry.SessionByName(name)
	if !ok {
		return
	}

	wasActive := s.Status() == models.SessionStatusActive

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.Forfeit(ctx, name); err != nil {
		log.Error().
			Err(err).
			Str("session_id", s.ID().String()).
			Str("name", name).
			Msg("failed to forfeit on disconnect")
	}

	if wasActive {
		h.broadcastLeaderboard(s.ID())
	}
	h.registry.Release(s)
}

func (h *Handler) handleLogin(conn *Connection, req LoginRequest) {
	if conn.IsBound() {
		h.sendError(conn, "connection already attached to a session")
		return
	}

	admit := game.AdmitRequest{
		Name:     req.Name,
		Passcode: req.Credential,
		Kind:     models.ParticipantKindHuman,
		ShowBids: req.ShowBids,
	}
	if req.IsAutomated {
		admit.Kind = models.ParticipantKindAutomated
		admit.OracleKind = req.AutomatedKind
		if admit.OracleKind == "" {
			admit.OracleKind = oracle.KindHeuristic
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	s, view, err := h.registry.Admit(ctx, admit)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	conn.BindParticipant(s.ID(), view.Name)
	h.sendToConn(conn, s.ID(), events.EventLoginSuccess, events.LoginSuccessPayload{
		Name:     view.Name,
		Ordinal:  view.Ordinal,
		Balance:  view.Balance,
		ShowBids: s.ShowBids(),
		Status:   s.Status(),
	})

	h.requestOracleBids(s)
}

func (h *Handler) handleSpectate(conn *Connection, req SpectateRequest) {
	if conn.IsBound() {
		h.sendError(conn, "connection already attached to a session")
		return
	}

	var (
		s  *game.Session
		ok bool
	)
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			h.sendError(conn, "invalid session id")
			return
		}
		s, ok = h.registry.Session(id)
	} else {
		s, ok = h.registry.AnyActive()
	}
	if !ok {
		h.sendError(conn, "no session to spectate")
		return
	}

	conn.BindSpectator(s.ID())
	h.sendToConn(conn, s.ID(), events.EventSpectateOK, events.SpectateOKPayload{
		SessionID: s.ID().String(),
	})
	h.sendToConn(conn, s.ID(), events.EventSessionState, s.State())
}

func (h *Handler) handleBid(conn *Connection, req SubmitBidRequest) {
	// The connection binding is the identity, not the name the client
	// happens to put in the message.
	if conn.ParticipantName() != req.Name {
		h.sendError(conn, "connection does not own this participant")
		return
	}

	s, ok := h.registry.SessionByName(req.Name)
	if !ok {
		h.sendError(conn, "no session for participant")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.SubmitBid(ctx, req.Name, req.Amount); err != nil {
		h.sendError(conn, err.Error())
		return
	}

	h.afterAction(s)
}

func (h *Handler) handleLeaderboard(conn *Connection, req LeaderboardRequest) {
	limit := req.Limit
	if limit <= 0 {
		limit = leaderboardLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	entries, err := h.store.TopEntries(ctx, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard")
		h.sendError(conn, "leaderboard unavailable")
		return
	}

	h.sendToConn(conn, conn.SessionID(), events.EventLeaderboard, events.LeaderboardPayload{Entries: entries})
}

// afterAction runs after any state-mutating session operation: it releases
// a finished session once its final broadcast is queued, or requests
// oracle bids for the turn now in progress.
func (h *Handler) afterAction(s *game.Session) {
	if s.Status() == models.SessionStatusFinished {
		h.broadcastLeaderboard(s.ID())
		h.registry.Release(s)
		return
	}
	h.requestOracleBids(s)
}

// requestOracleBids kicks off bounded oracle calls for every automated
// participant that has not yet bid this turn. The oracle never holds the
// session critical section; its answer re-enters through SubmitBid like
// any other bid.
func (h *Handler) requestOracleBids(s *game.Session) {
	for _, p := range s.UnsubmittedAutomated() {
		go func(p models.Participant) {
			state := s.State()
			snap := oracle.Snapshot{
				SessionID:      s.ID(),
				Ordinal:        p.Ordinal,
				MarkerPosition: state.MarkerPosition,
				TurnNumber:     state.TurnNumber,
				MaxTurns:       state.MaxTurns,
				Balance:        p.Balance,
			}

			bid := h.runner.RequestBid(context.Background(), p.OracleKind, snap)

			err := s.SubmitBid(context.Background(), p.Name, bid)
			switch {
			case err == nil:
				h.afterAction(s)
			case errors.Is(err, game.ErrAlreadySubmitted), errors.Is(err, game.ErrNotActive):
				// A concurrent oracle request or a forfeit got there first.
			default:
				log.Error().
					Err(err).
					Str("session_id", s.ID().String()).
					Str("name", p.Name).
					Msg("oracle bid rejected")
			}
		}(p)
	}
}

func (h *Handler) broadcastLeaderboard(sessionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	entries, err := h.store.TopEntries(ctx, leaderboardLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard for broadcast")
		return
	}

	env, err := events.New(sessionID, events.EventLeaderboard, events.LeaderboardPayload{Entries: entries})
	if err != nil {
		log.Error().Err(err).Msg("failed to build leaderboard event")
		return
	}
	h.sink.Broadcast(env)
}

func (h *Handler) sendToConn(conn *Connection, sessionID uuid.UUID, t events.EventType, payload any) {
	env, err := events.New(sessionID, t, payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to build event")
		return
	}
	h.cm.SendToConn(conn, env)
}

func (h *Handler) sendError(conn *Connection, message string) {
	h.sendToConn(conn, conn.SessionID(), events.EventError, events.ErrorPayload{Message: message})
}
