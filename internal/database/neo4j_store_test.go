package database

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/models"
)

// newTestNeo4jStore connects to TEST_NEO4J_URI and wipes the database. Tests using it
// are skipped when the variable is unset.
func newTestNeo4jStore(t *testing.T) *Neo4jStore {
	t.Helper()
	uri := os.Getenv("TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("TEST_NEO4J_URI not set")
	}
	ctx := context.Background()
	client, err := NewNeo4jClient(Config{
		URI:      uri,
		Username: os.Getenv("TEST_NEO4J_USERNAME"),
		Password: os.Getenv("TEST_NEO4J_PASSWORD"),
		Database: os.Getenv("TEST_NEO4J_DATABASE"),
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewNeo4jClient: %v", err)
	}
	if err := client.ExecuteWrite(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	store, err := NewNeo4jStore(ctx, client, logger.NewNop())
	if err != nil {
		t.Fatalf("NewNeo4jStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestNeo4jUnratedMovies(t *testing.T) {
	s := newTestNeo4jStore(t)
	seedCatalogue(t, s)
	ctx := context.Background()

	if err := s.CreateRatings(ctx, []models.Rating{
		{UserID: 7, MovieID: 1, Rating: 4, Timestamp: 1},
		{UserID: 7, MovieID: 1, Rating: 2, Timestamp: 2},
	}); err != nil {
		t.Fatalf("CreateRatings: %v", err)
	}

	got, err := s.UnratedMovies(ctx, 7)
	if err != nil {
		t.Fatalf("UnratedMovies: %v", err)
	}
	if want := []int{2, 3, 4, 42}; !equalInts(movieIDs(got), want) {
		t.Fatalf("expected %v, got %v", want, movieIDs(got))
	}

	got, err = s.UnratedMoviesInGenre(ctx, 7, 2)
	if err != nil {
		t.Fatalf("UnratedMoviesInGenre: %v", err)
	}
	if want := []int{2}; !equalInts(movieIDs(got), want) {
		t.Fatalf("expected %v, got %v", want, movieIDs(got))
	}

	if _, err := s.UnratedMoviesInGenre(ctx, 7, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNeo4jRatingLifecycle(t *testing.T) {
	s := newTestNeo4jStore(t)
	ctx := context.Background()

	if err := s.CreateRating(ctx, &models.Rating{UserID: 1, MovieID: 1, Rating: 0}); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}

	r := models.Rating{UserID: 1, MovieID: 1, Rating: 4}
	if err := s.CreateRating(ctx, &r); err != nil {
		t.Fatalf("CreateRating: %v", err)
	}
	if r.ID == 0 {
		t.Fatalf("expected an assigned id")
	}

	updated, err := s.UpdateRating(ctx, r.ID, &models.Rating{UserID: 1, MovieID: 1, Rating: 2})
	if err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}
	if updated.Rating != 2 || updated.Timestamp != r.Timestamp {
		t.Fatalf("unexpected update %+v", updated)
	}

	if err := s.DeleteRating(ctx, r.ID); err != nil {
		t.Fatalf("DeleteRating: %v", err)
	}
	if err := s.DeleteRating(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNeo4jDuplicateMovieConflicts(t *testing.T) {
	s := newTestNeo4jStore(t)
	ctx := context.Background()

	if err := s.CreateMovie(ctx, &models.Movie{MovieID: 1, Title: "One"}); err != nil {
		t.Fatalf("CreateMovie: %v", err)
	}
	if err := s.CreateMovie(ctx, &models.Movie{MovieID: 1, Title: "Again"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
