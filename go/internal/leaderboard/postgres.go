package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/scotchauction/go/internal/models"
)

// PostgresStore implements Store on a Postgres table. Every RecordResult
// is a single upsert statement, so concurrent finishes touching the same
// name serialize inside the database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed leaderboard store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
	}
}

// Migrate creates the leaderboard table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS leaderboard (
			name         TEXT PRIMARY KEY,
			rating       DOUBLE PRECISION NOT NULL,
			wins         INTEGER NOT NULL DEFAULT 0,
			losses       INTEGER NOT NULL DEFAULT 0,
			games_played INTEGER NOT NULL DEFAULT 0
		)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create leaderboard table: %w", err)
	}
	return nil
}

// LoadRating returns the persisted rating for name, or the default rating
// if the name has never played.
func (s *PostgresStore) LoadRating(ctx context.Context, name string) (float64, error) {
	var rating float64
	err := s.pool.QueryRow(ctx,
		`SELECT rating FROM leaderboard WHERE name = $1`, name,
	).Scan(&rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultRating, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load rating for %s: %w", name, err)
	}
	return rating, nil
}

// RecordResult upserts the named entry, applying the rating delta (floored
// at zero) and exactly one win or loss.
func (s *PostgresStore) RecordResult(ctx context.Context, name string, ratingDelta int, won bool) error {
	const upsert = `
		INSERT INTO leaderboard (name, rating, wins, losses, games_played)
		VALUES (
			$1,
			GREATEST(0, $2::double precision + $3),
			CASE WHEN $4 THEN 1 ELSE 0 END,
			CASE WHEN $4 THEN 0 ELSE 1 END,
			1
		)
		ON CONFLICT (name) DO UPDATE SET
			rating       = GREATEST(0, leaderboard.rating + $3),
			wins         = leaderboard.wins + CASE WHEN $4 THEN 1 ELSE 0 END,
			losses       = leaderboard.losses + CASE WHEN $4 THEN 0 ELSE 1 END,
			games_played = leaderboard.games_played + 1`
	if _, err := s.pool.Exec(ctx, upsert, name, models.DefaultRating, ratingDelta, won); err != nil {
		return fmt.Errorf("failed to record result for %s: %w", name, err)
	}
	return nil
}

// TopEntries returns up to limit entries ordered by rating descending.
func (s *PostgresStore) TopEntries(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, rating, wins, losses, games_played
		 FROM leaderboard
		 ORDER BY rating DESC, name ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Rating, &e.Wins, &e.Losses, &e.GamesPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}
	return out, nil
}
