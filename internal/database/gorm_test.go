package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "test.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func seedCatalogue(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	genres := []models.Genre{
		{GenreID: 0, Name: "unknown"},
		{GenreID: 1, Name: "Action"},
		{GenreID: 2, Name: "Film-Noir"},
		{GenreID: 3, Name: "Noir"},
	}
	if err := s.CreateGenres(ctx, genres); err != nil {
		t.Fatalf("CreateGenres: %v", err)
	}
	movies := []models.Movie{
		{MovieID: 1, Title: "One", Genres: "Action|Film-Noir"},
		{MovieID: 2, Title: "Two", Genres: "Film-Noir"},
		{MovieID: 3, Title: "Three", Genres: ""},
		{MovieID: 4, Title: "Four", Genres: "Action"},
		{MovieID: 42, Title: "Forty-two", Genres: "Noir"},
	}
	if err := s.CreateMovies(ctx, movies); err != nil {
		t.Fatalf("CreateMovies: %v", err)
	}
}

func movieIDs(movies []models.Movie) []int {
	ids := make([]int, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.MovieID)
	}
	return ids
}

func equalInts(a, b []int) bool {
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

func TestUnratedMoviesWithoutHistoryReturnsCatalogue(t *testing.T) {
	s := newTestStore(t)
	seedCatalogue(t, s)

	got, err := s.UnratedMovies(context.Background(), 999)
	if err != nil {
		t.Fatalf("UnratedMovies: %v", err)
	}
	if want := []int{1, 2, 3, 4, 42}; !equalInts(movieIDs(got), want) {
		t.Fatalf("expected %v, got %v", want, movieIDs(got))
	}
}

func TestUnratedMoviesExcludesRated(t *testing.T) {
	s := newTestStore(t)
	seedCatalogue(t, s)
	ctx := context.Background()

	if err := s.CreateRatings(ctx, []models.Rating{
		{UserID: 7, MovieID: 1, Rating: 4, Timestamp: 1},
		{UserID: 7, MovieID: 1, Rating: 2, Timestamp: 2},
		{UserID: 8, MovieID: 2, Rating: 5, Timestamp: 3},
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

	// a new rating takes 42 out of the candidate set
	if err := s.CreateRating(ctx, &models.Rating{UserID: 7, MovieID: 42, Rating: 5}); err != nil {
		t.Fatalf("CreateRating: %v", err)
	}
	got, err = s.UnratedMovies(ctx, 7)
	if err != nil {
		t.Fatalf("UnratedMovies: %v", err)
	}
	if want := []int{2, 3, 4}; !equalInts(movieIDs(got), want) {
		t.Fatalf("expected %v, got %v", want, movieIDs(got))
	}
}

func TestUnratedMoviesInGenreMatchesWholeToken(t *testing.T) {
	s := newTestStore(t)
	seedCatalogue(t, s)
	ctx := context.Background()

	if err := s.CreateRating(ctx, &models.Rating{UserID: 7, MovieID: 2, Rating: 3}); err != nil {
		t.Fatalf("CreateRating: %v", err)
	}

	cases := []struct {
		genreID int
		want    []int
	}{
		{1, []int{1, 4}},
		{2, []int{1}},
		{3, []int{42}},
		{0, []int{}},
	}
	for _, tc := range cases {
		got, err := s.UnratedMoviesInGenre(ctx, 7, tc.genreID)
		if err != nil {
			t.Fatalf("genre %d: %v", tc.genreID, err)
		}
		if !equalInts(movieIDs(got), tc.want) {
			t.Fatalf("genre %d: expected %v, got %v", tc.genreID, tc.want, movieIDs(got))
		}
	}

	if _, err := s.UnratedMoviesInGenre(ctx, 7, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown genre, got %v", err)
	}
}

func TestCreateRatingRejectsOutOfRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, v := range []int{0, 6, -1} {
		err := s.CreateRating(ctx, &models.Rating{UserID: 1, MovieID: 1, Rating: v})
		if !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", v, err)
		}
	}

	r := models.Rating{UserID: 1, MovieID: 1, Rating: 5}
	if err := s.CreateRating(ctx, &r); err != nil {
		t.Fatalf("CreateRating: %v", err)
	}
	if r.ID == 0 {
		t.Fatalf("expected an assigned id")
	}
	if r.Timestamp == 0 {
		t.Fatalf("expected the ingestion time to be stamped")
	}

	if _, err := s.UpdateRating(ctx, r.ID, &models.Rating{UserID: 1, MovieID: 1, Rating: 9}); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating on update, got %v", err)
	}
	got, err := s.GetRating(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRating: %v", err)
	}
	if got.Rating != 5 {
		t.Fatalf("rejected update must not be stored, got %d", got.Rating)
	}
}

func TestMovieCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	release := "01-Jan-1995"
	m := models.Movie{MovieID: 10, Title: "Ten", ReleaseDate: &release, Genres: "Action"}
	if err := s.CreateMovie(ctx, &m); err != nil {
		t.Fatalf("CreateMovie: %v", err)
	}
	if err := s.CreateMovie(ctx, &models.Movie{MovieID: 10, Title: "Dup"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	updated, err := s.UpdateMovie(ctx, 10, &models.Movie{Title: "Ten (1995)", Genres: "Action|Comedy"})
	if err != nil {
		t.Fatalf("UpdateMovie: %v", err)
	}
	if updated.Title != "Ten (1995)" || updated.Genres != "Action|Comedy" || updated.MovieID != 10 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := s.UpdateMovie(ctx, 11, &models.Movie{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteMovie(ctx, 10); err != nil {
		t.Fatalf("DeleteMovie: %v", err)
	}
	if _, err := s.GetMovie(ctx, 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteMovie(ctx, 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListMoviesPaging(t *testing.T) {
	s := newTestStore(t)
	seedCatalogue(t, s)
	ctx := context.Background()

	all, err := s.ListMovies(ctx, 0, -1)
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 movies with limit -1, got %d", len(all))
	}

	page, err := s.ListMovies(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	if want := []int{2, 3}; !equalInts(movieIDs(page), want) {
		t.Fatalf("expected %v, got %v", want, movieIDs(page))
	}

	byGenre, err := s.ListMoviesByGenre(ctx, 1, 0, 10)
	if err != nil {
		t.Fatalf("ListMoviesByGenre: %v", err)
	}
	if want := []int{1, 4}; !equalInts(movieIDs(byGenre), want) {
		t.Fatalf("expected %v, got %v", want, movieIDs(byGenre))
	}
}

func TestUsersAndWatched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, &models.User{UserID: 5}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, &models.User{UserID: 5}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := s.GetUser(ctx, 5); err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	w := models.Watched{UserID: 5, MovieID: 1}
	if err := s.CreateWatched(ctx, &w); err != nil {
		t.Fatalf("CreateWatched: %v", err)
	}
	ratingID := 3
	updated, err := s.UpdateWatched(ctx, w.ID, &models.Watched{UserID: 5, MovieID: 1, RatingID: &ratingID})
	if err != nil {
		t.Fatalf("UpdateWatched: %v", err)
	}
	if updated.RatingID == nil || *updated.RatingID != 3 {
		t.Fatalf("expected rating id 3, got %v", updated.RatingID)
	}

	st, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Users != 1 || st.Watched != 1 {
		t.Fatalf("unexpected status %+v", st)
	}

	if err := s.DeleteWatched(ctx, w.ID); err != nil {
		t.Fatalf("DeleteWatched: %v", err)
	}
	if err := s.DeleteUser(ctx, 5); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUser(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
