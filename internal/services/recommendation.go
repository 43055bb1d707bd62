package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yishak-cs/movierec/internal/database"
	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/metrics"
	"github.com/yishak-cs/movierec/internal/models"
	"github.com/yishak-cs/movierec/internal/scoring"
)

// RecommendRequest selects the user, the page and an optional genre
type RecommendRequest struct {
	UserID  int
	TopN    int
	Skip    int
	GenreID *int
}

// RecommendationService handles all recommendation logic
type RecommendationService struct {
	store      CandidateStore
	candidates *CandidateGenerator
	ranker     *Ranker
	scorer     scoring.Scorer
	log        *logger.Logger
}

// NewRecommendationService creates a new recommendation service. The scorer is shared
// by every request and must not be mutated afterwards.
func NewRecommendationService(store CandidateStore, scorer scoring.Scorer, ranker *Ranker, log *logger.Logger) *RecommendationService {
	return &RecommendationService{
		store:      store,
		candidates: NewCandidateGenerator(store),
		ranker:     ranker,
		scorer:     scorer,
		log:        log.With("service", "RecommendationService"),
	}
}

// Recommend ranks the user's unrated movies and returns the window [Skip, Skip+TopN).
// With a GenreID only movies of that genre are considered. Movies deleted between
// ranking and hydration are left out of the result.
func (s *RecommendationService) Recommend(ctx context.Context, req RecommendRequest) (recs []models.Recommendation, err error) {
	variant := metrics.VariantAll
	if req.GenreID != nil {
		variant = metrics.VariantGenre
	}
	start := time.Now()
	defer func() {
		metrics.RecordRecommendation(variant, time.Since(start), err)
	}()

	if req.TopN <= 0 {
		return []models.Recommendation{}, nil
	}
	skip := max(req.Skip, 0)

	var movies []models.Movie
	if req.GenreID != nil {
		movies, err = s.candidates.UnratedInGenre(ctx, req.UserID, *req.GenreID)
	} else {
		movies, err = s.candidates.Unrated(ctx, req.UserID)
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordCandidates(variant, len(movies))

	window := req.TopN + skip
	if window < req.TopN {
		window = math.MaxInt
	}
	ranked, err := s.ranker.Rank(ctx, movies, s.bind(req.UserID), window)
	if err != nil {
		s.log.Warn("Ranking failed", "user_id", req.UserID, "candidates", len(movies), "error", err)
		return nil, err
	}
	ranked = Window(ranked, skip)

	recs = make([]models.Recommendation, 0, len(ranked))
	for _, sm := range ranked {
		movie, err := s.store.GetMovie(ctx, sm.Movie.MovieID)
		if errors.Is(err, database.ErrNotFound) {
			s.log.Debug("Dropping recommendation for deleted movie", "user_id", req.UserID, "movie_id", sm.Movie.MovieID)
			metrics.RecordHydrationMiss()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate movie %d: %w", sm.Movie.MovieID, err)
		}
		recs = append(recs, models.Recommendation{Movie: *movie, PredictionRating: sm.Estimate})
	}

	return recs, nil
}

// PredictOne scores a single pair directly, without checking whether the user already
// rated the movie or whether the movie exists.
func (s *RecommendationService) PredictOne(ctx context.Context, userID, movieID int) (float64, error) {
	return s.ranker.Score(ctx, s.bind(userID), movieID)
}

func (s *RecommendationService) bind(userID int) ScoreFunc {
	return func(ctx context.Context, movieID int) (float64, error) {
		return s.scorer.Score(ctx, userID, movieID)
	}
}
