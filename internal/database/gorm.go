package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/models"
)

const importBatchSize = 500

// GormStore is the relational Store backed by sqlite or postgres
type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ Store = (*GormStore)(nil)

// OpenSQLite opens (creating the parent directory if needed) a sqlite database file
func OpenSQLite(path string, log *logger.Logger) (*GormStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}
	return NewGormStore(sqlite.Open(path), log)
}

// OpenPostgres connects to postgres using a DSN
func OpenPostgres(dsn string, log *logger.Logger) (*GormStore, error) {
	return NewGormStore(postgres.Open(dsn), log)
}

// NewGormStore opens the dialector and migrates every table
func NewGormStore(dialector gorm.Dialector, log *logger.Logger) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialector.Name(), err)
	}

	if err := db.AutoMigrate(
		&models.Movie{},
		&models.Genre{},
		&models.Rating{},
		&models.User{},
		&models.Watched{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	log.Info("Connected to relational store", "dialect", dialector.Name())
	return &GormStore{db: db, log: log.With("store", "GormStore")}, nil
}

func (s *GormStore) CreateMovie(ctx context.Context, movie *models.Movie) error {
	return translate(s.db.WithContext(ctx).Create(movie).Error)
}

func (s *GormStore) GetMovie(ctx context.Context, movieID int) (*models.Movie, error) {
	var m models.Movie
	if err := s.db.WithContext(ctx).First(&m, "movie_id = ?", movieID).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore) ListMovies(ctx context.Context, skip, limit int) ([]models.Movie, error) {
	skip, limit = pageBounds(skip, limit)
	var out []models.Movie
	err := s.db.WithContext(ctx).Order("movie_id ASC").Offset(skip).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return out, nil
}

func (s *GormStore) ListMoviesByGenre(ctx context.Context, genreID, skip, limit int) ([]models.Movie, error) {
	genre, err := s.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}
	skip, limit = pageBounds(skip, limit)
	var out []models.Movie
	err = s.genreScope(s.db.WithContext(ctx), genre.Name).
		Order("movie_id ASC").Offset(skip).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list movies by genre: %w", err)
	}
	return out, nil
}

func (s *GormStore) UpdateMovie(ctx context.Context, movieID int, movie *models.Movie) (*models.Movie, error) {
	existing, err := s.GetMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	existing.Title = movie.Title
	existing.ReleaseDate = movie.ReleaseDate
	existing.Genres = movie.Genres
	existing.URL = movie.URL
	existing.PosterURL = movie.PosterURL
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, translate(err)
	}
	return existing, nil
}

func (s *GormStore) DeleteMovie(ctx context.Context, movieID int) error {
	return deleted(s.db.WithContext(ctx).Delete(&models.Movie{}, "movie_id = ?", movieID))
}

func (s *GormStore) UnratedMovies(ctx context.Context, userID int) ([]models.Movie, error) {
	var out []models.Movie
	err := s.unrated(s.db.WithContext(ctx), userID).Order("movie_id ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get unrated movies: %w", err)
	}
	return out, nil
}

func (s *GormStore) UnratedMoviesInGenre(ctx context.Context, userID, genreID int) ([]models.Movie, error) {
	genre, err := s.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}
	var out []models.Movie
	err = s.genreScope(s.unrated(s.db.WithContext(ctx), userID), genre.Name).
		Order("movie_id ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get unrated movies in genre: %w", err)
	}
	return out, nil
}

// unrated is the anti-join: movies with no rating row for the user
func (s *GormStore) unrated(tx *gorm.DB, userID int) *gorm.DB {
	rated := s.db.Model(&models.Rating{}).Select("movie_id").Where("user_id = ?", userID)
	return tx.Model(&models.Movie{}).Where("movie_id NOT IN (?)", rated)
}

// genreScope matches a whole genre token inside the delimited genres column
func (s *GormStore) genreScope(tx *gorm.DB, name string) *gorm.DB {
	pattern := "%" + models.GenreSeparator + escapeLike(name) + models.GenreSeparator + "%"
	return tx.Where(`('|' || genres || '|') LIKE ? ESCAPE '\'`, pattern)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *GormStore) CreateGenres(ctx context.Context, genres []models.Genre) error {
	if len(genres) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(&genres).Error)
}

func (s *GormStore) GetGenre(ctx context.Context, genreID int) (*models.Genre, error) {
	var g models.Genre
	if err := s.db.WithContext(ctx).First(&g, "genre_id = ?", genreID).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (s *GormStore) ListGenres(ctx context.Context) ([]models.Genre, error) {
	var out []models.Genre
	if err := s.db.WithContext(ctx).Order("genre_id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return out, nil
}

func (s *GormStore) CreateRating(ctx context.Context, rating *models.Rating) error {
	if err := prepareRating(rating); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Create(rating).Error)
}

func (s *GormStore) GetRating(ctx context.Context, ratingID int) (*models.Rating, error) {
	var r models.Rating
	if err := s.db.WithContext(ctx).First(&r, "id = ?", ratingID).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) ListRatings(ctx context.Context, skip, limit int) ([]models.Rating, error) {
	skip, limit = pageBounds(skip, limit)
	var out []models.Rating
	if err := s.db.WithContext(ctx).Order("id ASC").Offset(skip).Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return out, nil
}

func (s *GormStore) UpdateRating(ctx context.Context, ratingID int, rating *models.Rating) (*models.Rating, error) {
	existing, err := s.GetRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	existing.UserID = rating.UserID
	existing.MovieID = rating.MovieID
	existing.Rating = rating.Rating
	if rating.Timestamp != 0 {
		existing.Timestamp = rating.Timestamp
	}
	if err := prepareRating(existing); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, translate(err)
	}
	return existing, nil
}

func (s *GormStore) DeleteRating(ctx context.Context, ratingID int) error {
	return deleted(s.db.WithContext(ctx).Delete(&models.Rating{}, "id = ?", ratingID))
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, userID int) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) DeleteUser(ctx context.Context, userID int) error {
	return deleted(s.db.WithContext(ctx).Delete(&models.User{}, "user_id = ?", userID))
}

func (s *GormStore) CreateWatched(ctx context.Context, watched *models.Watched) error {
	return translate(s.db.WithContext(ctx).Create(watched).Error)
}

func (s *GormStore) GetWatched(ctx context.Context, watchedID int) (*models.Watched, error) {
	var w models.Watched
	if err := s.db.WithContext(ctx).First(&w, "id = ?", watchedID).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *GormStore) UpdateWatched(ctx context.Context, watchedID int, watched *models.Watched) (*models.Watched, error) {
	existing, err := s.GetWatched(ctx, watchedID)
	if err != nil {
		return nil, err
	}
	existing.UserID = watched.UserID
	existing.MovieID = watched.MovieID
	existing.RatingID = watched.RatingID
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, translate(err)
	}
	return existing, nil
}

func (s *GormStore) DeleteWatched(ctx context.Context, watchedID int) error {
	return deleted(s.db.WithContext(ctx).Delete(&models.Watched{}, "id = ?", watchedID))
}

func (s *GormStore) CreateMovies(ctx context.Context, movies []models.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).CreateInBatches(&movies, importBatchSize).Error)
}

func (s *GormStore) CreateRatings(ctx context.Context, ratings []models.Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	for i := range ratings {
		if err := prepareRating(&ratings[i]); err != nil {
			return fmt.Errorf("rating %d: %w", i, err)
		}
	}
	return translate(s.db.WithContext(ctx).CreateInBatches(&ratings, importBatchSize).Error)
}

func (s *GormStore) CreateUsers(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).CreateInBatches(&users, importBatchSize).Error)
}

func (s *GormStore) Status(ctx context.Context) (models.ImportStatus, error) {
	var st models.ImportStatus
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.Movie{}, &st.Movies},
		{&models.Genre{}, &st.Genres},
		{&models.Rating{}, &st.Ratings},
		{&models.User{}, &st.Users},
		{&models.Watched{}, &st.Watched},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dst).Error; err != nil {
			return st, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return st, nil
}

func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the store's sentinel errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

func deleted(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
