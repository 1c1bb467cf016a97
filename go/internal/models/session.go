package models

// SessionStatus defines the lifecycle phase of a session.
type SessionStatus string

const (
	SessionStatusWaiting  SessionStatus = "WAITING"
	SessionStatusActive   SessionStatus = "ACTIVE"
	SessionStatusFinished SessionStatus = "FINISHED"
)

// SettlementRule defines who pays their bid when a turn resolves.
type SettlementRule string

const (
	// SettlementWinnerPays deducts the bid from the turn winner only.
	// Losing costs nothing; winning costs exactly the bid.
	SettlementWinnerPays SettlementRule = "WINNER_PAYS"
	// SettlementBothPay deducts each participant's own bid regardless of
	// who won the turn.
	SettlementBothPay SettlementRule = "BOTH_PAY"
)

// Marker track bounds. Position 0 is ordinal 1's goal, position 10 is
// ordinal 2's goal, and every session starts at the midpoint.
const (
	MarkerMin   = 0
	MarkerMax   = 10
	MarkerStart = 5
)
