package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yishak-cs/movierec/internal/models"
	"github.com/yishak-cs/movierec/internal/validate"
)

const defaultRatingLimit = 100

type saveRatingRequest struct {
	UserID  int `json:"user_id" validate:"gt=0"`
	MovieID int `json:"movie_id" validate:"gt=0"`
	Rating  int `json:"rating" validate:"gte=1,lte=5"`
}

type saveUserRequest struct {
	UserID int `json:"user_id" validate:"gt=0"`
}

type saveWatchedRequest struct {
	UserID   int  `json:"user_id" validate:"gt=0"`
	MovieID  int  `json:"movie_id" validate:"gt=0"`
	RatingID *int `json:"rating_id" validate:"omitnil,gt=0"`
}

// bind decodes the JSON body into req and runs struct validation
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return false
	}
	if fields := validate.Map(req); fields != nil {
		RespondValidation(c, fields)
		return false
	}
	return true
}

// CreateRating stores a rating stamped with the current time
func (h *APIHandler) CreateRating(c *gin.Context) {
	var req saveRatingRequest
	if !bind(c, &req) {
		return
	}
	rating := models.Rating{UserID: req.UserID, MovieID: req.MovieID, Rating: req.Rating}
	if err := h.store.CreateRating(c.Request.Context(), &rating); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (h *APIHandler) GetRating(c *gin.Context) {
	ratingID, ok := intParam(c, "ratingId")
	if !ok {
		return
	}
	rating, err := h.store.GetRating(c.Request.Context(), ratingID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (h *APIHandler) ListRatings(c *gin.Context) {
	skip, ok := intQuery(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultRatingLimit)
	if !ok {
		return
	}
	ratings, err := h.store.ListRatings(c.Request.Context(), skip, limit)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}

func (h *APIHandler) UpdateRating(c *gin.Context) {
	ratingID, ok := intParam(c, "ratingId")
	if !ok {
		return
	}
	var req saveRatingRequest
	if !bind(c, &req) {
		return
	}
	rating := models.Rating{UserID: req.UserID, MovieID: req.MovieID, Rating: req.Rating}
	updated, err := h.store.UpdateRating(c.Request.Context(), ratingID, &rating)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *APIHandler) DeleteRating(c *gin.Context) {
	ratingID, ok := intParam(c, "ratingId")
	if !ok {
		return
	}
	if err := h.store.DeleteRating(c.Request.Context(), ratingID); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating deleted successfully"})
}

func (h *APIHandler) CreateUser(c *gin.Context) {
	var req saveUserRequest
	if !bind(c, &req) {
		return
	}
	user := models.User{UserID: req.UserID}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *APIHandler) GetUser(c *gin.Context) {
	userID, ok := intParam(c, "userId")
	if !ok {
		return
	}
	user, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *APIHandler) DeleteUser(c *gin.Context) {
	userID, ok := intParam(c, "userId")
	if !ok {
		return
	}
	if err := h.store.DeleteUser(c.Request.Context(), userID); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *APIHandler) CreateWatched(c *gin.Context) {
	var req saveWatchedRequest
	if !bind(c, &req) {
		return
	}
	watched := models.Watched{UserID: req.UserID, MovieID: req.MovieID, RatingID: req.RatingID}
	if err := h.store.CreateWatched(c.Request.Context(), &watched); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, watched)
}

func (h *APIHandler) GetWatched(c *gin.Context) {
	watchedID, ok := intParam(c, "watchedId")
	if !ok {
		return
	}
	watched, err := h.store.GetWatched(c.Request.Context(), watchedID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, watched)
}

func (h *APIHandler) UpdateWatched(c *gin.Context) {
	watchedID, ok := intParam(c, "watchedId")
	if !ok {
		return
	}
	var req saveWatchedRequest
	if !bind(c, &req) {
		return
	}
	watched := models.Watched{UserID: req.UserID, MovieID: req.MovieID, RatingID: req.RatingID}
	updated, err := h.store.UpdateWatched(c.Request.Context(), watchedID, &watched)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *APIHandler) DeleteWatched(c *gin.Context) {
	watchedID, ok := intParam(c, "watchedId")
	if !ok {
		return
	}
	if err := h.store.DeleteWatched(c.Request.Context(), watchedID); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Watched entry deleted successfully"})
}
