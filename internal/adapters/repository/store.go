// Package repository defines the athlete score store used for ranking and
// the percentile feed to the encouragement summary.
package repository

import "context"

// Entry is one athlete's row in the score ranking.
type Entry struct {
	Rank      int
	AthleteID string
	Score     float64
}

// Store provides read/write access to best swing scores.
// Ordering is deterministic: score descending, athlete id ascending.
type Store interface {
	// UpdateBest records score for the athlete if it beats their current
	// best. Returns true when the store updated.
	UpdateBest(ctx context.Context, athleteID string, score float64) (bool, error)

	// Rank returns the athlete's current rank and best score.
	// Returns ErrNotFound for unknown athletes.
	Rank(ctx context.Context, athleteID string) (Entry, error)

	// TopN returns the top-N entries ordered best first.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Percentile returns the share of tracked athletes the given athlete
	// scores at or above, in [0,100].
	Percentile(ctx context.Context, athleteID string) (float64, error)

	// Count returns the number of athletes tracked.
	Count(ctx context.Context) int
}
