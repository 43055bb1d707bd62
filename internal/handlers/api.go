package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yishak-cs/movierec/internal/database"
	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/models"
	"github.com/yishak-cs/movierec/internal/services"
	"github.com/yishak-cs/movierec/internal/validate"
)

// DefaultTopN is used when a recommendation request has no topN parameter
const DefaultTopN = 10

// APIHandler handles all API requests
type APIHandler struct {
	recommendationService *services.RecommendationService
	store                 database.Store
	log                   *logger.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(recommendationService *services.RecommendationService, store database.Store, log *logger.Logger) *APIHandler {
	return &APIHandler{
		recommendationService: recommendationService,
		store:                 store,
		log:                   log.With("component", "APIHandler"),
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	recs := router.Group("/recommendations")
	{
		recs.GET("/:userId", h.GetRecommendations)
		recs.GET("/genre/:genreId", h.GetGenreRecommendations)
	}
	router.POST("/predict", h.Predict)

	movies := router.Group("/movies")
	{
		movies.POST("", h.CreateMovie)
		movies.GET("", h.ListMovies)
		movies.GET("/:movieId", h.GetMovie)
		movies.GET("/genre/:genreId", h.ListMoviesByGenre)
		movies.PUT("/:movieId", h.UpdateMovie)
		movies.DELETE("/:movieId", h.DeleteMovie)
	}

	router.GET("/genres", h.ListGenres)

	ratings := router.Group("/ratings")
	{
		ratings.POST("", h.CreateRating)
		ratings.GET("", h.ListRatings)
		ratings.GET("/:ratingId", h.GetRating)
		ratings.PUT("/:ratingId", h.UpdateRating)
		ratings.DELETE("/:ratingId", h.DeleteRating)
	}

	users := router.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("/:userId", h.GetUser)
		users.DELETE("/:userId", h.DeleteUser)
	}

	watched := router.Group("/watched")
	{
		watched.POST("", h.CreateWatched)
		watched.GET("/:watchedId", h.GetWatched)
		watched.PUT("/:watchedId", h.UpdateWatched)
		watched.DELETE("/:watchedId", h.DeleteWatched)
	}
}

func (h *APIHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Movie Recommender API is up and running."})
}

// Health reports whether the entity store answers
func (h *APIHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.store.Health(ctx); err != nil {
		h.log.Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetRecommendations handles GET /recommendations/:userId?topN=
func (h *APIHandler) GetRecommendations(c *gin.Context) {
	userID, ok := intParam(c, "userId")
	if !ok {
		return
	}
	topN, ok := intQuery(c, "topN", DefaultTopN)
	if !ok {
		return
	}

	recommendations, err := h.recommendationService.Recommend(c.Request.Context(), services.RecommendRequest{
		UserID: userID,
		TopN:   topN,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recommendations)
}

// GetGenreRecommendations handles GET /recommendations/genre/:genreId?userId=&topN=&skip=
func (h *APIHandler) GetGenreRecommendations(c *gin.Context) {
	genreID, ok := intParam(c, "genreId")
	if !ok {
		return
	}
	if _, present := c.GetQuery("userId"); !present {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, errors.New("userId is required"))
		return
	}
	userID, ok := intQuery(c, "userId", 0)
	if !ok {
		return
	}
	topN, ok := intQuery(c, "topN", DefaultTopN)
	if !ok {
		return
	}
	skip, ok := intQuery(c, "skip", 0)
	if !ok {
		return
	}

	recommendations, err := h.recommendationService.Recommend(c.Request.Context(), services.RecommendRequest{
		UserID:  userID,
		TopN:    topN,
		Skip:    skip,
		GenreID: &genreID,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recommendations)
}

type predictRequest struct {
	UserID  *int `json:"user_id" validate:"required"`
	MovieID *int `json:"movie_id" validate:"required"`
}

// Predict handles POST /predict
func (h *APIHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	if fields := validate.Map(req); fields != nil {
		RespondValidation(c, fields)
		return
	}

	est, err := h.recommendationService.PredictOne(c.Request.Context(), *req.UserID, *req.MovieID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.Prediction{
		UserID:           *req.UserID,
		MovieID:          *req.MovieID,
		PredictionRating: est,
	})
}
