package leaderboard

import (
	"context"
	"sort"
	"sync"

	"github.com/mcdev12/scotchauction/go/internal/models"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory leaderboard.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// LoadRating returns the stored rating for name, or the default rating if
// the name is unknown.
func (s *MemoryStore) LoadRating(ctx context.Context, name string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		return e.Rating, nil
	}
	return models.DefaultRating, nil
}

// RecordResult applies a game result to the named entry, creating it with
// the default rating first if needed.
func (s *MemoryStore) RecordResult(ctx context.Context, name string, ratingDelta int, won bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		e = &Entry{Name: name, Rating: models.DefaultRating}
		s.entries[name] = e
	}

	e.Rating += float64(ratingDelta)
	if e.Rating < 0 {
		e.Rating = 0
	}
	if won {
		e.Wins++
	} else {
		e.Losses++
	}
	e.GamesPlayed++
	return nil
}

// TopEntries returns up to limit entries sorted by rating descending, with
// name as a stable tiebreak.
func (s *MemoryStore) TopEntries(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
