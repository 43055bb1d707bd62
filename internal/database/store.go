package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yishak-cs/movierec/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrInvalidRating is returned when a rating value falls outside [1,5]
	ErrInvalidRating = fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	// ErrConflict is returned when a unique key already exists
	ErrConflict = errors.New("record already exists")
)

// Store is the durable entity store for movies, genres, ratings, users and watched entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Movies
	CreateMovie(ctx context.Context, movie *models.Movie) error
	GetMovie(ctx context.Context, movieID int) (*models.Movie, error)
	// ListMovies returns movies ordered by id. limit < 0 returns every movie after skip.
	ListMovies(ctx context.Context, skip, limit int) ([]models.Movie, error)
	ListMoviesByGenre(ctx context.Context, genreID, skip, limit int) ([]models.Movie, error)
	UpdateMovie(ctx context.Context, movieID int, movie *models.Movie) (*models.Movie, error)
	DeleteMovie(ctx context.Context, movieID int) error

	// UnratedMovies returns, in a single read, every movie the user has no rating row for,
	// ordered by id. A rating committed while the query runs may or may not be observed;
	// the next request recomputes the set.
	UnratedMovies(ctx context.Context, userID int) ([]models.Movie, error)
	// UnratedMoviesInGenre narrows UnratedMovies to movies whose genre set contains the
	// vocabulary entry genreID. Unknown genres yield ErrNotFound.
	UnratedMoviesInGenre(ctx context.Context, userID, genreID int) ([]models.Movie, error)

	// Genres
	CreateGenres(ctx context.Context, genres []models.Genre) error
	GetGenre(ctx context.Context, genreID int) (*models.Genre, error)
	ListGenres(ctx context.Context) ([]models.Genre, error)

	// Ratings
	CreateRating(ctx context.Context, rating *models.Rating) error
	GetRating(ctx context.Context, ratingID int) (*models.Rating, error)
	ListRatings(ctx context.Context, skip, limit int) ([]models.Rating, error)
	UpdateRating(ctx context.Context, ratingID int, rating *models.Rating) (*models.Rating, error)
	DeleteRating(ctx context.Context, ratingID int) error

	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID int) (*models.User, error)
	DeleteUser(ctx context.Context, userID int) error

	// Watched
	CreateWatched(ctx context.Context, watched *models.Watched) error
	GetWatched(ctx context.Context, watchedID int) (*models.Watched, error)
	UpdateWatched(ctx context.Context, watchedID int, watched *models.Watched) (*models.Watched, error)
	DeleteWatched(ctx context.Context, watchedID int) error

	// Bulk import support
	CreateMovies(ctx context.Context, movies []models.Movie) error
	CreateRatings(ctx context.Context, ratings []models.Rating) error
	CreateUsers(ctx context.Context, users []models.User) error
	Status(ctx context.Context) (models.ImportStatus, error)

	Health(ctx context.Context) error
	Close(ctx context.Context) error
}

// prepareRating validates the rating value and stamps a missing timestamp with the
// ingestion time. Every store calls it before writing.
func prepareRating(r *models.Rating) error {
	if r.Rating < models.MinRating || r.Rating > models.MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, r.Rating)
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().Unix()
	}
	return nil
}

// pageBounds normalizes skip/limit pairs coming from query strings
func pageBounds(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = -1
	}
	return skip, limit
}
