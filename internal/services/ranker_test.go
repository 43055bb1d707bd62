package services

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yishak-cs/movierec/internal/models"
)

func candidates(ids ...int) []models.Movie {
	out := make([]models.Movie, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Movie{MovieID: id})
	}
	return out
}

func fixedScores(scores map[int]float64) ScoreFunc {
	return func(ctx context.Context, movieID int) (float64, error) {
		return scores[movieID], nil
	}
}

func scoredIDs(s []models.ScoredMovie) []int {
	ids := make([]int, 0, len(s))
	for _, sm := range s {
		ids = append(ids, sm.Movie.MovieID)
	}
	return ids
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRankNonPositiveTopNSkipsScoring(t *testing.T) {
	r := NewRanker(4, time.Second)
	var calls atomic.Int32
	score := func(ctx context.Context, movieID int) (float64, error) {
		calls.Add(1)
		return 1, nil
	}

	for _, topN := range []int{0, -3} {
		got, err := r.Rank(context.Background(), candidates(1, 2, 3), score, topN)
		if err != nil {
			t.Fatalf("topN %d: %v", topN, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("topN %d: expected empty non-nil result, got %v", topN, got)
		}
	}

	got, err := r.Rank(context.Background(), nil, score, 10)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("no candidates: expected empty result, got %v, %v", got, err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no scorer calls, got %d", calls.Load())
	}
}

func TestRankTiesKeepCandidateOrder(t *testing.T) {
	r := NewRanker(3, time.Second)
	score := fixedScores(map[int]float64{1: 0.9, 2: 0.9, 3: 0.5})

	got, err := r.Rank(context.Background(), candidates(1, 2, 3), score, 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if want := []int{1, 2}; !sameInts(scoredIDs(got), want) {
		t.Fatalf("expected %v, got %v", want, scoredIDs(got))
	}
	for _, sm := range got {
		if sm.Estimate != 0.9 {
			t.Fatalf("expected estimate 0.9, got %v", sm.Estimate)
		}
	}
}

func TestRankReturnsAllWhenTopNExceedsCandidates(t *testing.T) {
	r := NewRanker(2, time.Second)
	score := fixedScores(map[int]float64{1: 1, 2: 5, 3: 3, 4: 2, 5: 4})

	got, err := r.Rank(context.Background(), candidates(1, 2, 3, 4, 5), score, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if want := []int{2, 5, 3, 4, 1}; !sameInts(scoredIDs(got), want) {
		t.Fatalf("expected %v, got %v", want, scoredIDs(got))
	}
}

func TestRankIsDeterministicAndDescending(t *testing.T) {
	r := NewRanker(8, time.Second)
	ids := make([]int, 0, 300)
	for i := 1; i <= 300; i++ {
		ids = append(ids, i)
	}
	// many ties so that ordering depends on stability
	score := func(ctx context.Context, movieID int) (float64, error) {
		return float64(movieID % 7), nil
	}

	first, err := r.Rank(context.Background(), candidates(ids...), score, 50)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(first) != 50 {
		t.Fatalf("expected 50 results, got %d", len(first))
	}
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.Estimate < cur.Estimate {
			t.Fatalf("not descending at %d: %v < %v", i, prev.Estimate, cur.Estimate)
		}
		if prev.Estimate == cur.Estimate && prev.Movie.MovieID > cur.Movie.MovieID {
			t.Fatalf("tie order broken at %d: %d before %d", i, prev.Movie.MovieID, cur.Movie.MovieID)
		}
	}

	for run := 0; run < 5; run++ {
		again, err := r.Rank(context.Background(), candidates(ids...), score, 50)
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		if !sameInts(scoredIDs(first), scoredIDs(again)) {
			t.Fatalf("run %d differs", run)
		}
	}
}

func TestRankFailsFastOnScorerError(t *testing.T) {
	r := NewRanker(2, time.Second)
	boom := errors.New("feature unavailable")
	score := func(ctx context.Context, movieID int) (float64, error) {
		if movieID == 3 {
			return 0, boom
		}
		return 1, nil
	}

	got, err := r.Rank(context.Background(), candidates(1, 2, 3, 4), score, 10)
	if !errors.Is(err, ErrScoring) {
		t.Fatalf("expected ErrScoring, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected the scorer error to be wrapped, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no partial ranking, got %v", got)
	}
}

func TestRankRejectsInvalidEstimates(t *testing.T) {
	r := NewRanker(2, time.Second)
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		score := fixedScores(map[int]float64{1: 1, 2: bad})
		if _, err := r.Rank(context.Background(), candidates(1, 2), score, 1); !errors.Is(err, ErrScoring) {
			t.Fatalf("estimate %v: expected ErrScoring, got %v", bad, err)
		}
	}
}

func TestRankTimesOutSlowScorer(t *testing.T) {
	r := NewRanker(2, 20*time.Millisecond)
	score := func(ctx context.Context, movieID int) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}

	start := time.Now()
	_, err := r.Rank(context.Background(), candidates(1, 2, 3), score, 3)
	if !errors.Is(err, ErrScoring) {
		t.Fatalf("expected ErrScoring, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("ranking did not honour the per-call timeout")
	}
}

func TestRankTimeoutDoesNotWaitForScorerIgnoringContext(t *testing.T) {
	r := NewRanker(1, 20*time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	score := func(ctx context.Context, movieID int) (float64, error) {
		select {
		case <-release:
		case <-time.After(500 * time.Millisecond):
		}
		return 1, nil
	}

	start := time.Now()
	_, err := r.Rank(context.Background(), candidates(1), score, 1)
	elapsed := time.Since(start)
	if !errors.Is(err, ErrScoring) {
		t.Fatalf("expected ErrScoring, got %v", err)
	}
	if elapsed > 250*time.Millisecond {
		t.Fatalf("expected the timeout to return promptly, took %s", elapsed)
	}
}

func TestWindow(t *testing.T) {
	r := NewRanker(2, time.Second)
	score := fixedScores(map[int]float64{1: 4, 2: 3, 3: 2, 4: 1})

	// skip=3, topN=2 over 4 candidates: a window of 5 is requested, only position 4 exists
	ranked, err := r.Rank(context.Background(), candidates(1, 2, 3, 4), score, 2+3)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	got := Window(ranked, 3)
	if want := []int{4}; !sameInts(scoredIDs(got), want) {
		t.Fatalf("expected %v, got %v", want, scoredIDs(got))
	}

	if got := Window(ranked, -2); len(got) != 4 {
		t.Fatalf("negative skip should keep everything, got %d", len(got))
	}
	if got := Window(ranked, 10); got == nil || len(got) != 0 {
		t.Fatalf("skip past the end should yield an empty slice, got %v", got)
	}
}
