package services

import (
	"context"
	"fmt"

	"github.com/yishak-cs/movierec/internal/models"
)

// CandidateStore is the slice of the entity store the pipeline reads from
type CandidateStore interface {
	UnratedMovies(ctx context.Context, userID int) ([]models.Movie, error)
	UnratedMoviesInGenre(ctx context.Context, userID, genreID int) ([]models.Movie, error)
	GetMovie(ctx context.Context, movieID int) (*models.Movie, error)
}

// CandidateGenerator produces the movies a user has not rated yet
type CandidateGenerator struct {
	store CandidateStore
}

// NewCandidateGenerator creates a new candidate generator
func NewCandidateGenerator(store CandidateStore) *CandidateGenerator {
	return &CandidateGenerator{store: store}
}

// Unrated returns every movie without a rating from userID, in ascending movie id order.
// Users with no ratings, including ids the store has never seen, get the whole catalogue.
func (g *CandidateGenerator) Unrated(ctx context.Context, userID int) ([]models.Movie, error) {
	movies, err := g.store.UnratedMovies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate candidates: %w", err)
	}
	return movies, nil
}

// UnratedInGenre narrows Unrated to movies tagged with genreID.
// An unknown genre surfaces the store's not-found error.
func (g *CandidateGenerator) UnratedInGenre(ctx context.Context, userID, genreID int) ([]models.Movie, error) {
	movies, err := g.store.UnratedMoviesInGenre(ctx, userID, genreID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate genre candidates: %w", err)
	}
	return movies, nil
}
