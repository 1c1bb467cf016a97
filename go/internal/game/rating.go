package game

import (
	"math"

	"github.com/mcdev12/scotchauction/go/internal/models"
)

// KFactor bounds how much a rating can change in a single game.
const KFactor = 32

// RatingResult holds the applied zero-sum rating adjustment.
type RatingResult struct {
	WinnerDelta  int
	LoserDelta   int
	WinnerRating float64
	LoserRating  float64
}

// ExpectedScore returns the logistic expected score for a player against
// an opponent.
func ExpectedScore(rating, opponentRating float64) float64 {
	return 1 / (1 + math.Pow(10, (opponentRating-rating)/400))
}

// UpdateRatings applies a zero-sum rating adjustment between the winner
// and loser of a finished game, clamps both ratings at zero, and bumps
// the win/loss/games counters by exactly one each.
func UpdateRatings(winner, loser *models.Participant) RatingResult {
	expected := ExpectedScore(winner.Rating, loser.Rating)
	winnerDelta := int(math.Round(KFactor * (1 - expected)))
	loserDelta := -winnerDelta

	winner.Rating = clampRating(winner.Rating + float64(winnerDelta))
	loser.Rating = clampRating(loser.Rating + float64(loserDelta))

	winner.Wins++
	winner.GamesPlayed++
	loser.Losses++
	loser.GamesPlayed++

	return RatingResult{
		WinnerDelta:  winnerDelta,
		LoserDelta:   loserDelta,
		WinnerRating: winner.Rating,
		LoserRating:  loser.Rating,
	}
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	return r
}
