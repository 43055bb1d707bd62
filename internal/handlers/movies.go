package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yishak-cs/movierec/internal/models"
)

const (
	defaultMovieLimit      = 100
	defaultGenreMovieLimit = 10
)

type saveMovieRequest struct {
	MovieID     int     `json:"movie_id" validate:"gt=0"`
	Title       string  `json:"movie_title" validate:"required,max=255"`
	ReleaseDate *string `json:"release_date"`
	Genres      string  `json:"genres"`
	URL         *string `json:"url" validate:"omitnil,url"`
	PosterURL   *string `json:"poster_url" validate:"omitnil,url"`
}

func (r saveMovieRequest) toModel() models.Movie {
	return models.Movie{
		MovieID:     r.MovieID,
		Title:       r.Title,
		ReleaseDate: r.ReleaseDate,
		Genres:      r.Genres,
		URL:         r.URL,
		PosterURL:   r.PosterURL,
	}
}

func (h *APIHandler) bindMovie(c *gin.Context) (models.Movie, bool) {
	var req saveMovieRequest
	if !bind(c, &req) {
		return models.Movie{}, false
	}
	return req.toModel(), true
}

func (h *APIHandler) CreateMovie(c *gin.Context) {
	movie, ok := h.bindMovie(c)
	if !ok {
		return
	}
	if err := h.store.CreateMovie(c.Request.Context(), &movie); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

func (h *APIHandler) GetMovie(c *gin.Context) {
	movieID, ok := intParam(c, "movieId")
	if !ok {
		return
	}
	movie, err := h.store.GetMovie(c.Request.Context(), movieID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// ListMovies handles GET /movies?skip=&limit=. limit=-1 returns every movie.
func (h *APIHandler) ListMovies(c *gin.Context) {
	skip, ok := intQuery(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultMovieLimit)
	if !ok {
		return
	}
	movies, err := h.store.ListMovies(c.Request.Context(), skip, limit)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (h *APIHandler) ListMoviesByGenre(c *gin.Context) {
	genreID, ok := intParam(c, "genreId")
	if !ok {
		return
	}
	skip, ok := intQuery(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultGenreMovieLimit)
	if !ok {
		return
	}
	movies, err := h.store.ListMoviesByGenre(c.Request.Context(), genreID, skip, limit)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (h *APIHandler) UpdateMovie(c *gin.Context) {
	movieID, ok := intParam(c, "movieId")
	if !ok {
		return
	}
	movie, ok := h.bindMovie(c)
	if !ok {
		return
	}
	updated, err := h.store.UpdateMovie(c.Request.Context(), movieID, &movie)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *APIHandler) DeleteMovie(c *gin.Context) {
	movieID, ok := intParam(c, "movieId")
	if !ok {
		return
	}
	if err := h.store.DeleteMovie(c.Request.Context(), movieID); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Movie deleted successfully"})
}

func (h *APIHandler) ListGenres(c *gin.Context) {
	genres, err := h.store.ListGenres(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, genres)
}
