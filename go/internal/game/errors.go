package game

import "errors"

// Admission errors. None of these mutate session state.
var (
	ErrSessionFull = errors.New("session already has two participants")
	ErrWrongPhase  = errors.New("session is not accepting participants")
	ErrNameTaken   = errors.New("participant name already taken")
)

// Bid errors. A rejected bid leaves the turn in progress untouched and the
// participant may retry with a corrected amount.
var (
	ErrNotActive          = errors.New("session is not active")
	ErrUnknownParticipant = errors.New("participant not in session")
	ErrNegativeBid        = errors.New("bid must not be negative")
	ErrBidExceedsBalance  = errors.New("bid exceeds balance")
	ErrAlreadySubmitted   = errors.New("bid already submitted this turn")
)
