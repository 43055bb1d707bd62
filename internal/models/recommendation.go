package models

// ScoredMovie is a candidate movie paired with the scorer's estimate for one user.
// It only lives for the duration of a ranking request.
type ScoredMovie struct {
	Movie    Movie   `json:"movie"`
	Estimate float64 `json:"estimate"`
}

// Recommendation represents a hydrated movie with its predicted rating
type Recommendation struct {
	Movie            Movie   `json:"movie"`
	PredictionRating float64 `json:"prediction_rating"`
}

// Prediction is the result of scoring a single (user, movie) pair
type Prediction struct {
	UserID           int     `json:"user_id"`
	MovieID          int     `json:"movie_id"`
	PredictionRating float64 `json:"prediction_rating"`
}

// ImportStatus reports how many rows each table holds after an import
type ImportStatus struct {
	Movies  int64 `json:"movies"`
	Genres  int64 `json:"genres"`
	Ratings int64 `json:"ratings"`
	Users   int64 `json:"users"`
	Watched int64 `json:"watched"`
}
