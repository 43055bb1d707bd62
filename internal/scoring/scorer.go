// Package scoring holds the rating predictor used to rank candidate movies.
package scoring

import "context"

// Scorer estimates the rating a user would give a movie. Implementations must be safe
// for concurrent use; the ranker calls Score from several goroutines at once.
// Implementations should return when ctx is done. The ranker abandons a call at its
// deadline, but a call that ignores ctx keeps running in the background until it returns.
type Scorer interface {
	Score(ctx context.Context, userID, movieID int) (float64, error)
}

// ScorerFunc adapts a plain function to the Scorer interface
type ScorerFunc func(ctx context.Context, userID, movieID int) (float64, error)

func (f ScorerFunc) Score(ctx context.Context, userID, movieID int) (float64, error) {
	return f(ctx, userID, movieID)
}
