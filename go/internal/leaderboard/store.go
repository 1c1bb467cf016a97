package leaderboard

import (
	"context"
)

// Entry is one row on the persistent leaderboard.
type Entry struct {
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	GamesPlayed int     `json:"games_played"`
}

// Store persists ratings and win/loss records across sessions. Each
// RecordResult call must apply as a single atomic read-modify-write on the
// named entry; concurrent session finishes may hit the same name.
type Store interface {
	// LoadRating returns the persisted rating for name, or the default
	// rating if the name has never played.
	LoadRating(ctx context.Context, name string) (float64, error)

	// RecordResult applies a finished game to the named entry: the rating
	// delta (clamped so the rating never drops below zero) and exactly one
	// win or loss.
	RecordResult(ctx context.Context, name string, ratingDelta int, won bool) error

	// TopEntries returns up to limit entries ordered by rating, best first.
	TopEntries(ctx context.Context, limit int) ([]Entry, error)
}
