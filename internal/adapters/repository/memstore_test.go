package repository

import (
	"context"
	"errors"
	"testing"
)

func TestMemStore_UpdateBest(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	improved, err := s.UpdateBest(ctx, "athlete-1", 70)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !improved {
		t.Error("expected first score to count as an improvement")
	}

	// A lower score never replaces the best.
	improved, err = s.UpdateBest(ctx, "athlete-1", 50)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if improved {
		t.Error("expected lower score to be ignored")
	}
	entry, err := s.Rank(ctx, "athlete-1")
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if entry.Score != 70 {
		t.Errorf("expected best 70, got %v", entry.Score)
	}

	improved, _ = s.UpdateBest(ctx, "athlete-1", 85)
	if !improved {
		t.Error("expected higher score to improve the best")
	}
}

func TestMemStore_Ordering(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_, _ = s.UpdateBest(ctx, "carol", 90)
	_, _ = s.UpdateBest(ctx, "alice", 75)
	_, _ = s.UpdateBest(ctx, "bob", 75)
	_, _ = s.UpdateBest(ctx, "dave", 40)

	top, err := s.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("topn failed: %v", err)
	}
	want := []Entry{
		{Rank: 1, AthleteID: "carol", Score: 90},
		{Rank: 2, AthleteID: "alice", Score: 75},
		{Rank: 3, AthleteID: "bob", Score: 75},
		{Rank: 4, AthleteID: "dave", Score: 40},
	}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, e := range want {
		if top[i] != e {
			t.Errorf("entry %d: expected %+v, got %+v", i, e, top[i])
		}
	}

	// Ties break by athlete id ascending.
	if top[1].AthleteID != "alice" || top[2].AthleteID != "bob" {
		t.Error("expected tie to break by athlete id")
	}

	top2, err := s.TopN(ctx, 2)
	if err != nil {
		t.Fatalf("topn failed: %v", err)
	}
	if len(top2) != 2 || top2[1].AthleteID != "alice" {
		t.Errorf("unexpected truncated leaderboard: %+v", top2)
	}
}

func TestMemStore_InvalidLimit(t *testing.T) {
	s := NewMemStore()
	if _, err := s.TopN(context.Background(), 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestMemStore_RankNotFound(t *testing.T) {
	s := NewMemStore()
	if _, err := s.Rank(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStore_Percentile(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_, _ = s.UpdateBest(ctx, "a", 90)
	_, _ = s.UpdateBest(ctx, "b", 70)
	_, _ = s.UpdateBest(ctx, "c", 50)
	_, _ = s.UpdateBest(ctx, "d", 30)

	pct, err := s.Percentile(ctx, "b")
	if err != nil {
		t.Fatalf("percentile failed: %v", err)
	}
	// b's 70 is at or above 3 of 4 scores.
	if pct != 75 {
		t.Errorf("expected percentile 75, got %v", pct)
	}

	pct, _ = s.Percentile(ctx, "a")
	if pct != 100 {
		t.Errorf("expected percentile 100, got %v", pct)
	}

	if _, err := s.Percentile(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStore_Count(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if n := s.Count(ctx); n != 0 {
		t.Errorf("expected empty store, got %d", n)
	}
	_, _ = s.UpdateBest(ctx, "a", 10)
	_, _ = s.UpdateBest(ctx, "a", 20)
	_, _ = s.UpdateBest(ctx, "b", 30)
	if n := s.Count(ctx); n != 2 {
		t.Errorf("expected 2 athletes, got %d", n)
	}
}
