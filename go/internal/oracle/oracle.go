package oracle

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcdev12/scotchauction/go/internal/models"
)

// Oracle kinds selectable at login for automated participants.
const (
	KindRandom    = "random"
	KindHeuristic = "heuristic"
)

// Snapshot is the read-only view of a session handed to a bid oracle.
type Snapshot struct {
	SessionID      uuid.UUID
	Ordinal        models.Ordinal
	MarkerPosition int
	TurnNumber     int
	MaxTurns       int
	Balance        int
}

// Goal returns the marker position the snapshot's participant is playing
// toward.
func (s Snapshot) Goal() int {
	if s.Ordinal == models.Ordinal1 {
		return models.MarkerMin
	}
	return models.MarkerMax
}

// Oracle produces a bid for an automated participant. Implementations may
// block (remote decision services do); callers bound them with a timeout
// through the Runner.
type Oracle interface {
	Bid(ctx context.Context, snap Snapshot) (int, error)
}
