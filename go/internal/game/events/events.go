package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire form of every outbound session event: a typed
// discriminator plus an event-specific payload.
type Envelope struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of a session event.
type EventType string

const (
	EventLoginSuccess      EventType = "LOGIN_SUCCESS"
	EventSpectateOK        EventType = "SPECTATE_OK"
	EventSessionState      EventType = "SESSION_STATE"
	EventBidStatus         EventType = "BID_STATUS"
	EventTurnResolved      EventType = "TURN_RESOLVED"
	EventParticipantUpdate EventType = "PARTICIPANT_UPDATE"
	EventGameOver          EventType = "GAME_OVER"
	EventLeaderboard       EventType = "LEADERBOARD"
	EventError             EventType = "ERROR"
)

// New builds an envelope around the given payload.
func New(sessionID uuid.UUID, t EventType, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return &Envelope{
		ID:        uuid.New().String(),
		SessionID: sessionID.String(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Payload parses the envelope data into the payload struct for its type.
// Unknown types return an error rather than a silent nil.
func (e *Envelope) Payload() (any, error) {
	switch e.Type {
	case EventLoginSuccess:
		return decode[LoginSuccessPayload](e)
	case EventSpectateOK:
		return decode[SpectateOKPayload](e)
	case EventSessionState:
		return decode[SessionStatePayload](e)
	case EventBidStatus:
		return decode[BidStatusPayload](e)
	case EventTurnResolved:
		return decode[TurnResolvedPayload](e)
	case EventParticipantUpdate:
		return decode[ParticipantUpdatePayload](e)
	case EventGameOver:
		return decode[GameOverPayload](e)
	case EventLeaderboard:
		return decode[LeaderboardPayload](e)
	case EventError:
		return decode[ErrorPayload](e)
	default:
		return nil, fmt.Errorf("unknown event type: %s", e.Type)
	}
}

func decode[T any](e *Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return payload, nil
}
