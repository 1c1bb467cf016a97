package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// InboundType represents the type of a client message.
type InboundType string

const (
	InboundLogin              InboundType = "LOGIN"
	InboundSpectate           InboundType = "SPECTATE"
	InboundSubmitBid          InboundType = "SUBMIT_BID"
	InboundRequestLeaderboard InboundType = "REQUEST_LEADERBOARD"
)

// Inbound message decode errors.
var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// LoginRequest asks to be seated as a bidder. Credential checks happen at
// the admission gate; here the credential only keys matchmaking.
type LoginRequest struct {
	Type          InboundType `json:"type"`
	Name          string      `json:"name"`
	Credential    string      `json:"credential"`
	IsAutomated   bool        `json:"is_automated"`
	AutomatedKind string      `json:"automated_kind,omitempty"`
	ShowBids      bool        `json:"show_bids"`
}

func (r LoginRequest) validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrMalformedMessage)
	}
	if r.Credential == "" {
		return fmt.Errorf("%w: credential is required", ErrMalformedMessage)
	}
	return nil
}

// SpectateRequest attaches the connection as a read-only observer. With no
// session id the spectator is placed on any active session.
type SpectateRequest struct {
	Type      InboundType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
}

// SubmitBidRequest is the only state-mutating inbound message.
type SubmitBidRequest struct {
	Type   InboundType `json:"type"`
	Name   string      `json:"name"`
	Amount int         `json:"amount"`
}

func (r SubmitBidRequest) validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrMalformedMessage)
	}
	return nil
}

// LeaderboardRequest asks for the current standings.
type LeaderboardRequest struct {
	Type  InboundType `json:"type"`
	Limit int         `json:"limit,omitempty"`
}

// DecodeInbound parses a raw client message into its concrete request
// type. Unknown type tags are a distinct error, never a silent no-op.
func DecodeInbound(data []byte) (any, error) {
	var head struct {
		Type InboundType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch head.Type {
	case InboundLogin:
		var req LoginRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if err := req.validate(); err != nil {
			return nil, err
		}
		return req, nil

	case InboundSpectate:
		var req SpectateRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return req, nil

	case InboundSubmitBid:
		var req SubmitBidRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if err := req.validate(); err != nil {
			return nil, err
		}
		return req, nil

	case InboundRequestLeaderboard:
		var req LeaderboardRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, head.Type)
	}
}
