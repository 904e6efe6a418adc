package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jcortez/swinglab/pkg/metrics"
)

// MemStore is the in-memory Store implementation. Write volume is one
// update per analyzed swing, so it keeps a plain map and rebuilds a sorted
// snapshot lazily on read.
type MemStore struct {
	mu       sync.RWMutex
	best     map[string]float64
	snapshot []Entry // score desc, athlete asc; nil when stale
}

// NewMemStore creates an empty score store.
func NewMemStore() *MemStore {
	return &MemStore{best: make(map[string]float64)}
}

// UpdateBest records score for the athlete if it beats their current best.
func (s *MemStore) UpdateBest(_ context.Context, athleteID string, score float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.best[athleteID]; ok && cur >= score {
		return false, nil
	}
	s.best[athleteID] = score
	s.snapshot = nil
	metrics.UpdateAthletesRanked(len(s.best))
	return true, nil
}

// Rank returns the athlete's current rank and best score.
func (s *MemStore) Rank(_ context.Context, athleteID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.snapshotLocked() {
		if e.AthleteID == athleteID {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// TopN returns the top-N entries ordered best first.
func (s *MemStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked()
	if n > len(snap) {
		n = len(snap)
	}
	out := make([]Entry, n)
	copy(out, snap[:n])
	return out, nil
}

// Percentile returns the share of tracked athletes whose best score the
// given athlete meets or beats, in [0,100]. A solo athlete sits at 100.
func (s *MemStore) Percentile(_ context.Context, athleteID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	score, ok := s.best[athleteID]
	if !ok {
		return 0, ErrNotFound
	}
	atOrBelow := 0
	for _, other := range s.best {
		if other <= score {
			atOrBelow++
		}
	}
	return 100 * float64(atOrBelow) / float64(len(s.best)), nil
}

// Count returns the number of athletes tracked.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.best)
}

func (s *MemStore) snapshotLocked() []Entry {
	if s.snapshot != nil {
		return s.snapshot
	}
	snap := make([]Entry, 0, len(s.best))
	for id, score := range s.best {
		snap = append(snap, Entry{AthleteID: id, Score: score})
	}
	sort.Slice(snap, func(i, j int) bool {
		if snap[i].Score != snap[j].Score {
			return snap[i].Score > snap[j].Score
		}
		return snap[i].AthleteID < snap[j].AthleteID
	})
	for i := range snap {
		snap[i].Rank = i + 1
	}
	s.snapshot = snap
	return snap
}
