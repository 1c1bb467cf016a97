package events

import (
	"github.com/mcdev12/scotchauction/go/internal/leaderboard"
	"github.com/mcdev12/scotchauction/go/internal/models"
)

// LoginSuccessPayload acknowledges an admitted participant. Private to the
// owning connection.
type LoginSuccessPayload struct {
	Name     string               `json:"name"`
	Ordinal  models.Ordinal       `json:"ordinal"`
	Balance  int                  `json:"balance"`
	ShowBids bool                 `json:"show_bids"`
	Status   models.SessionStatus `json:"status"`
}

// SpectateOKPayload acknowledges a spectator attach.
type SpectateOKPayload struct {
	SessionID string `json:"session_id"`
}

// SessionStatePayload is the redacted session view broadcast on lifecycle
// transitions and sent to newly attached spectators.
type SessionStatePayload struct {
	TurnNumber     int                  `json:"turn_number"`
	MaxTurns       int                  `json:"max_turns"`
	MarkerPosition int                  `json:"marker_position"`
	Status         models.SessionStatus `json:"status"`
}

// BidStatusPayload shows only whether each side has submitted, never the
// bid values themselves.
type BidStatusPayload struct {
	Ordinal1Name      string `json:"ordinal1_name"`
	Ordinal2Name      string `json:"ordinal2_name"`
	Ordinal1Submitted bool   `json:"ordinal1_submitted"`
	Ordinal2Submitted bool   `json:"ordinal2_submitted"`
	TurnNumber        int    `json:"turn_number"`
}

// TurnResolvedPayload describes one settled turn. Bid1 and Bid2 are set
// only when the session's show-bids option is enabled; disclosure is
// strictly post-resolution either way.
type TurnResolvedPayload struct {
	OldPosition   int            `json:"old_position"`
	NewPosition   int            `json:"new_position"`
	TurnNumber    int            `json:"turn_number"`
	MaxTurns      int            `json:"max_turns"`
	WinnerOrdinal models.Ordinal `json:"winner_ordinal"`
	TieUsed       bool           `json:"tie_used"`
	Bid1          *int           `json:"bid1,omitempty"`
	Bid2          *int           `json:"bid2,omitempty"`
	GameOver      bool           `json:"game_over"`
}

// ParticipantUpdatePayload carries a participant's own balance and last
// bid. Private to the owning connection.
type ParticipantUpdatePayload struct {
	Balance int `json:"balance"`
	LastBid int `json:"last_bid"`
}

// FinalState summarizes the board at game over.
type FinalState struct {
	Ordinal1Name    string `json:"ordinal1_name"`
	Ordinal2Name    string `json:"ordinal2_name"`
	Ordinal1Balance int    `json:"ordinal1_balance"`
	Ordinal2Balance int    `json:"ordinal2_balance"`
	FinalPosition   int    `json:"final_position"`
	WinnerName      string `json:"winner_name"`
}

// RatingChange describes one side of the zero-sum rating adjustment.
type RatingChange struct {
	Name      string  `json:"name"`
	Delta     int     `json:"delta"`
	NewRating float64 `json:"new_rating"`
}

// RatingDeltas pairs the winner and loser adjustments.
type RatingDeltas struct {
	Winner RatingChange `json:"winner"`
	Loser  RatingChange `json:"loser"`
}

// GameOverPayload is the final broadcast of a session: full history, final
// state, and the rating adjustments. ForfeitedName is set when the game
// ended because a participant disconnected.
type GameOverPayload struct {
	History       []models.TurnRecord `json:"history"`
	FinalState    FinalState          `json:"final_state"`
	RatingDeltas  RatingDeltas        `json:"rating_deltas"`
	ForfeitedName string              `json:"forfeited_name,omitempty"`
}

// LeaderboardPayload carries the current standings, best rating first.
type LeaderboardPayload struct {
	Entries []leaderboard.Entry `json:"entries"`
}

// ErrorPayload is sent only to the connection whose action was rejected.
type ErrorPayload struct {
	Message string `json:"message"`
}
