package models

import "strings"

// GenreSeparator joins genre names in Movie.Genres
const GenreSeparator = "|"

// Movie represents a catalogue entry keyed by its externally sourced id
type Movie struct {
	MovieID     int     `json:"movie_id" gorm:"primaryKey;autoIncrement:false"`
	Title       string  `json:"movie_title" gorm:"column:movie_title;not null"`
	ReleaseDate *string `json:"release_date"`
	Genres      string  `json:"genres"`
	URL         *string `json:"url" gorm:"column:url"`
	PosterURL   *string `json:"poster_url" gorm:"column:poster_url"`
}

// GenreList splits the delimited genre string. An empty string yields no genres.
func (m Movie) GenreList() []string {
	if m.Genres == "" {
		return []string{}
	}
	return strings.Split(m.Genres, GenreSeparator)
}

// HasGenre reports whether name is one of the movie's genres (exact match)
func (m Movie) HasGenre(name string) bool {
	for _, g := range m.GenreList() {
		if g == name {
			return true
		}
	}
	return false
}

// Genre is one entry of the ordered genre vocabulary used at import time
type Genre struct {
	GenreID int    `json:"genre_id" gorm:"primaryKey;autoIncrement:false"`
	Name    string `json:"name" gorm:"not null;uniqueIndex"`
}

// Rating is a single rating event. A user may rate the same movie more than once.
type Rating struct {
	ID        int   `json:"id" gorm:"primaryKey"`
	UserID    int   `json:"user_id" gorm:"not null;index"`
	MovieID   int   `json:"movie_id" gorm:"not null;index"`
	Rating    int   `json:"rating" gorm:"not null;check:chk_ratings_rating,rating >= 1 AND rating <= 5"`
	Timestamp int64 `json:"timestamp" gorm:"not null"`
}

// MinRating and MaxRating bound Rating.Rating
const (
	MinRating = 1
	MaxRating = 5
)

// User is identified by its external id only
type User struct {
	UserID int `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
}

// Watched records that a user watched a movie, optionally pointing at the resulting rating
type Watched struct {
	ID       int  `json:"id" gorm:"primaryKey"`
	UserID   int  `json:"user_id" gorm:"not null;index"`
	MovieID  int  `json:"movie_id" gorm:"not null"`
	RatingID *int `json:"rating_id"`
}

// TableName keeps the table singular like the other watch-history tables
func (Watched) TableName() string { return "watched" }
