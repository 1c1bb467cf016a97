package game

import (
	"context"

	"github.com/mcdev12/scotchauction/go/internal/game/events"
	"github.com/mcdev12/scotchauction/go/internal/models"
)

// resolveWinner determines the turn winner. The larger bid wins; equal
// bids go to the current tie-advantage holder. The returned flag reports
// whether the tie-break decided the turn.
func resolveWinner(bid1, bid2 int, advantage models.Ordinal) (models.Ordinal, bool) {
	switch {
	case bid1 > bid2:
		return models.Ordinal1, false
	case bid2 > bid1:
		return models.Ordinal2, false
	default:
		return advantage, true
	}
}

// clampMarker keeps a marker position inside the track. Under correct
// sequencing resolution stops at the boundary, so this never actually
// truncates a move.
func clampMarker(pos int) int {
	if pos < models.MarkerMin {
		return models.MarkerMin
	}
	if pos > models.MarkerMax {
		return models.MarkerMax
	}
	return pos
}

// resolveTurnLocked settles the current turn: winner determination,
// tie-advantage flip, marker movement, settlement, history record, and
// either the next-turn reset or game-over handling. Caller must hold s.mu
// and have verified that both participants submitted.
func (s *Session) resolveTurnLocked(ctx context.Context) {
	p1 := s.participants[0]
	p2 := s.participants[1]

	winner, tie := resolveWinner(p1.PendingBid, p2.PendingBid, s.tieAdvantage)
	if tie {
		// The advantage flips on every tie, not every turn.
		s.tieAdvantage = s.tieAdvantage.Other()
	}

	rec := models.TurnRecord{
		Turn:           s.turnNumber,
		Bid1:           p1.PendingBid,
		Bid2:           p2.PendingBid,
		Balance1Before: p1.Balance,
		Balance2Before: p2.Balance,
		WinnerOrdinal:  winner,
		TieUsed:        tie,
		OldPosition:    s.markerPosition,
	}

	if winner == models.Ordinal1 {
		s.markerPosition = clampMarker(s.markerPosition - 1)
	} else {
		s.markerPosition = clampMarker(s.markerPosition + 1)
	}
	rec.NewPosition = s.markerPosition

	switch s.cfg.Settlement {
	case models.SettlementBothPay:
		p1.Balance -= p1.PendingBid
		p2.Balance -= p2.PendingBid
	default:
		if winner == models.Ordinal1 {
			p1.Balance -= p1.PendingBid
		} else {
			p2.Balance -= p2.PendingBid
		}
	}
	rec.Balance1After = p1.Balance
	rec.Balance2After = p2.Balance

	s.history = append(s.history, rec)
	s.turnNumber++

	gameOver := s.markerPosition == models.MarkerMin ||
		s.markerPosition == models.MarkerMax ||
		s.turnNumber > s.cfg.MaxTurns

	resolved := events.TurnResolvedPayload{
		OldPosition:   rec.OldPosition,
		NewPosition:   rec.NewPosition,
		TurnNumber:    rec.Turn,
		MaxTurns:      s.cfg.MaxTurns,
		WinnerOrdinal: winner,
		TieUsed:       tie,
		GameOver:      gameOver,
	}
	if s.cfg.ShowBids {
		bid1, bid2 := rec.Bid1, rec.Bid2
		resolved.Bid1 = &bid1
		resolved.Bid2 = &bid2
	}
	s.broadcastLocked(events.EventTurnResolved, resolved)

	s.sendPrivateLocked(p1.Name, events.EventParticipantUpdate, events.ParticipantUpdatePayload{
		Balance: p1.Balance,
		LastBid: rec.Bid1,
	})
	s.sendPrivateLocked(p2.Name, events.EventParticipantUpdate, events.ParticipantUpdatePayload{
		Balance: p2.Balance,
		LastBid: rec.Bid2,
	})

	if gameOver {
		s.finishLocked(ctx, s.gameWinnerLocked(), "")
		return
	}

	p1.ClearBid()
	p2.ClearBid()
	s.broadcastLocked(events.EventBidStatus, s.bidStatusLocked())
}
