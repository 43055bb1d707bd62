package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yishak-cs/movierec/internal/metrics"
	"github.com/yishak-cs/movierec/internal/models"
)

// ErrScoring wraps every failure that aborts a ranking
var ErrScoring = errors.New("scoring failed")

// Ranker defaults
const (
	DefaultWorkers      = 8
	DefaultScoreTimeout = 2 * time.Second
)

// ScoreFunc estimates one movie for a user already bound by the caller
type ScoreFunc func(ctx context.Context, movieID int) (float64, error)

// Ranker scores candidates on a bounded worker pool and keeps the best topN
type Ranker struct {
	workers int
	timeout time.Duration
}

// NewRanker creates a ranker. Non-positive arguments fall back to the defaults.
func NewRanker(workers int, timeout time.Duration) *Ranker {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultScoreTimeout
	}
	return &Ranker{workers: workers, timeout: timeout}
}

// Rank scores every candidate exactly once and returns at most topN entries ordered by
// descending estimate. Equal estimates keep the candidate order, so the same candidates
// and scores always produce the same output.
//
// The first failing call (error, timeout, NaN or infinite estimate) cancels the remaining
// work and is returned wrapped in ErrScoring; no partial ranking is returned.
func (r *Ranker) Rank(ctx context.Context, candidates []models.Movie, score ScoreFunc, topN int) ([]models.ScoredMovie, error) {
	if topN <= 0 || len(candidates) == 0 {
		return []models.ScoredMovie{}, nil
	}

	scored := make([]models.ScoredMovie, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, movie := range candidates {
		i, movie := i, movie
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			est, err := r.scoreOne(gctx, score, movie.MovieID)
			if err != nil {
				return err
			}
			scored[i] = models.ScoredMovie{Movie: movie, Estimate: est}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Estimate > scored[b].Estimate
	})

	return scored[:min(topN, len(scored))], nil
}

// Score runs a single bounded scorer call with the same checks Rank applies
func (r *Ranker) Score(ctx context.Context, score ScoreFunc, movieID int) (float64, error) {
	return r.scoreOne(ctx, score, movieID)
}

type scoreResult struct {
	est float64
	err error
}

// scoreOne stops waiting once the call's deadline passes, whether or not the scorer
// observes its context.
func (r *Ranker) scoreOne(ctx context.Context, score ScoreFunc, movieID int) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// buffered so a call that outlives the deadline can still finish and exit
	done := make(chan scoreResult, 1)
	start := time.Now()
	go func() {
		est, err := score(callCtx, movieID)
		done <- scoreResult{est: est, err: err}
	}()

	var est float64
	var err error
	select {
	case res := <-done:
		est, err = res.est, res.err
	case <-callCtx.Done():
		err = callCtx.Err()
	}
	metrics.RecordScore(time.Since(start))

	if err == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = callCtx.Err()
	}
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		metrics.RecordScoringFailure(metrics.ReasonTimeout)
		return 0, fmt.Errorf("%w: movie %d: timed out after %s", ErrScoring, movieID, r.timeout)
	case err != nil && errors.Is(err, context.Canceled):
		// another worker already failed, or the request went away
		return 0, fmt.Errorf("%w: movie %d: %w", ErrScoring, movieID, err)
	case err != nil:
		metrics.RecordScoringFailure(metrics.ReasonError)
		return 0, fmt.Errorf("%w: movie %d: %w", ErrScoring, movieID, err)
	case math.IsNaN(est) || math.IsInf(est, 0):
		metrics.RecordScoringFailure(metrics.ReasonInvalid)
		return 0, fmt.Errorf("%w: movie %d: invalid estimate %v", ErrScoring, movieID, est)
	}
	return est, nil
}

// Window drops the first skip entries of a ranking. A negative skip is treated as 0 and a
// skip past the end yields an empty slice.
//
// Callers that page with Window rank topN+skip entries each time, so a later page is a
// window over a fresh ranking, not a continuation of an earlier one.
func Window(ranked []models.ScoredMovie, skip int) []models.ScoredMovie {
	if skip <= 0 {
		return ranked
	}
	if skip >= len(ranked) {
		return []models.ScoredMovie{}
	}
	return ranked[skip:]
}
