package models

// DefaultRating is the skill rating assigned to a participant the first
// time they appear on the leaderboard.
const DefaultRating = 1500.0

// ParticipantKind defines how a participant produces bids.
type ParticipantKind string

const (
	ParticipantKindHuman     ParticipantKind = "HUMAN"
	ParticipantKindAutomated ParticipantKind = "AUTOMATED"
)

// Ordinal identifies a participant's seat. It also fixes which end of the
// marker track is their goal: ordinal 1 plays toward position 0, ordinal 2
// toward position 10.
type Ordinal int

const (
	Ordinal1 Ordinal = 1
	Ordinal2 Ordinal = 2
)

// Other returns the opposing seat.
func (o Ordinal) Other() Ordinal {
	if o == Ordinal1 {
		return Ordinal2
	}
	return Ordinal1
}

// Participant is one bidder in a session. PendingBid is only meaningful
// while Submitted is true; both are cleared at the start of each turn.
type Participant struct {
	Name        string          `json:"name"`
	Kind        ParticipantKind `json:"kind"`
	OracleKind  string          `json:"oracle_kind,omitempty"`
	Ordinal     Ordinal         `json:"ordinal"`
	Balance     int             `json:"balance"`
	PendingBid  int             `json:"-"`
	Submitted   bool            `json:"submitted"`
	Rating      float64         `json:"rating"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	GamesPlayed int             `json:"games_played"`
}

// IsAutomated reports whether bids for this participant come from a bid
// oracle rather than a connected client.
func (p *Participant) IsAutomated() bool {
	return p.Kind == ParticipantKindAutomated
}

// ClearBid resets the per-turn bid fields.
func (p *Participant) ClearBid() {
	p.PendingBid = 0
	p.Submitted = false
}
