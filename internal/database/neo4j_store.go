package database

import (
	"context"
	"fmt"

	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/models"
)

// Neo4jStore is the graph-backed Store. Movies, genres, users, ratings and watched
// entries are nodes; ratings and watched entries carry user_id/movie_id properties and
// take their ids from a :Sequence node.
type Neo4jStore struct {
	client *Neo4jClient
	log    *logger.Logger
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore creates the uniqueness constraints and returns the store
func NewNeo4jStore(ctx context.Context, client *Neo4jClient, log *logger.Logger) (*Neo4jStore, error) {
	s := &Neo4jStore{client: client, log: log.With("store", "Neo4jStore")}
	constraints := []string{
		"CREATE CONSTRAINT movie_id_unique IF NOT EXISTS FOR (m:Movie) REQUIRE m.movie_id IS UNIQUE",
		"CREATE CONSTRAINT genre_id_unique IF NOT EXISTS FOR (g:Genre) REQUIRE g.genre_id IS UNIQUE",
		"CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.user_id IS UNIQUE",
		"CREATE CONSTRAINT rating_id_unique IF NOT EXISTS FOR (r:Rating) REQUIRE r.id IS UNIQUE",
		"CREATE CONSTRAINT watched_id_unique IF NOT EXISTS FOR (w:Watched) REQUIRE w.id IS UNIQUE",
		"CREATE INDEX rating_user IF NOT EXISTS FOR (r:Rating) ON (r.user_id)",
	}
	for _, q := range constraints {
		if err := client.ExecuteWrite(ctx, q, nil); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	s.log.Info("Neo4j schema ready", "constraints", len(constraints))
	return s, nil
}

const movieReturn = `
	RETURN m.movie_id AS movie_id,
	       m.title AS title,
	       m.release_date AS release_date,
	       m.genres AS genres,
	       m.url AS url,
	       m.poster_url AS poster_url
`

func (s *Neo4jStore) CreateMovie(ctx context.Context, movie *models.Movie) error {
	return s.CreateMovies(ctx, []models.Movie{*movie})
}

func (s *Neo4jStore) GetMovie(ctx context.Context, movieID int) (*models.Movie, error) {
	query := `MATCH (m:Movie {movie_id: $movieId})` + movieReturn
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"movieId": movieID})
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	m := movieFromRecord(results[0])
	return &m, nil
}

func (s *Neo4jStore) ListMovies(ctx context.Context, skip, limit int) ([]models.Movie, error) {
	query := `MATCH (m:Movie)` + movieReturn + ` ORDER BY movie_id`
	return s.readMovies(ctx, query, map[string]interface{}{}, skip, limit)
}

func (s *Neo4jStore) ListMoviesByGenre(ctx context.Context, genreID, skip, limit int) ([]models.Movie, error) {
	genre, err := s.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}
	query := `MATCH (m:Movie) WHERE $genre IN m.genre_list` + movieReturn + ` ORDER BY movie_id`
	return s.readMovies(ctx, query, map[string]interface{}{"genre": genre.Name}, skip, limit)
}

func (s *Neo4jStore) readMovies(ctx context.Context, query string, params map[string]interface{}, skip, limit int) ([]models.Movie, error) {
	skip, limit = pageBounds(skip, limit)
	query += ` SKIP $skip`
	params["skip"] = skip
	if limit >= 0 {
		query += ` LIMIT $limit`
		params["limit"] = limit
	}
	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return moviesFromRecords(results), nil
}

func (s *Neo4jStore) UpdateMovie(ctx context.Context, movieID int, movie *models.Movie) (*models.Movie, error) {
	query := `
		MATCH (m:Movie {movie_id: $movieId})
		SET m.title = $title,
		    m.release_date = $releaseDate,
		    m.genres = $genres,
		    m.genre_list = $genreList,
		    m.url = $url,
		    m.poster_url = $posterUrl
	` + movieReturn
	params := movieParams(*movie)
	params["movieId"] = movieID
	results, err := s.client.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	m := movieFromRecord(results[0])
	return &m, nil
}

func (s *Neo4jStore) DeleteMovie(ctx context.Context, movieID int) error {
	return s.deleteNode(ctx, `MATCH (n:Movie {movie_id: $id})`, movieID)
}

func (s *Neo4jStore) UnratedMovies(ctx context.Context, userID int) ([]models.Movie, error) {
	query := `
		MATCH (m:Movie)
		WHERE NOT EXISTS {
			MATCH (r:Rating {user_id: $userId}) WHERE r.movie_id = m.movie_id
		}
	` + movieReturn + ` ORDER BY movie_id`
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get unrated movies: %w", err)
	}
	return moviesFromRecords(results), nil
}

func (s *Neo4jStore) UnratedMoviesInGenre(ctx context.Context, userID, genreID int) ([]models.Movie, error) {
	genre, err := s.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}
	query := `
		MATCH (m:Movie)
		WHERE $genre IN m.genre_list
		  AND NOT EXISTS {
			MATCH (r:Rating {user_id: $userId}) WHERE r.movie_id = m.movie_id
		}
	` + movieReturn + ` ORDER BY movie_id`
	params := map[string]interface{}{"userId": userID, "genre": genre.Name}
	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get unrated movies in genre: %w", err)
	}
	return moviesFromRecords(results), nil
}

func (s *Neo4jStore) CreateGenres(ctx context.Context, genres []models.Genre) error {
	if len(genres) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(genres))
	for _, g := range genres {
		rows = append(rows, map[string]interface{}{"genre_id": g.GenreID, "name": g.Name})
	}
	query := `
		UNWIND $rows AS row
		CREATE (:Genre {genre_id: row.genre_id, name: row.name})
	`
	return s.write(ctx, query, map[string]interface{}{"rows": rows})
}

func (s *Neo4jStore) GetGenre(ctx context.Context, genreID int) (*models.Genre, error) {
	query := `MATCH (g:Genre {genre_id: $genreId}) RETURN g.genre_id AS genre_id, g.name AS name`
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"genreId": genreID})
	if err != nil {
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &models.Genre{GenreID: intValue(results[0]["genre_id"]), Name: stringValue(results[0]["name"])}, nil
}

func (s *Neo4jStore) ListGenres(ctx context.Context) ([]models.Genre, error) {
	query := `MATCH (g:Genre) RETURN g.genre_id AS genre_id, g.name AS name ORDER BY genre_id`
	results, err := s.client.ExecuteRead(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	out := make([]models.Genre, 0, len(results))
	for _, r := range results {
		out = append(out, models.Genre{GenreID: intValue(r["genre_id"]), Name: stringValue(r["name"])})
	}
	return out, nil
}

const ratingReturn = `
	RETURN r.id AS id, r.user_id AS user_id, r.movie_id AS movie_id,
	       r.rating AS rating, r.timestamp AS timestamp
`

func (s *Neo4jStore) CreateRating(ctx context.Context, rating *models.Rating) error {
	if err := prepareRating(rating); err != nil {
		return err
	}
	query := nextID("rating") + `
		CREATE (r:Rating {id: id, user_id: $userId, movie_id: $movieId, rating: $rating, timestamp: $timestamp})
	` + ratingReturn
	results, err := s.client.ExecuteWriteWithResult(ctx, query, ratingParams(*rating))
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	if len(results) > 0 {
		*rating = ratingFromRecord(results[0])
	}
	return nil
}

func (s *Neo4jStore) GetRating(ctx context.Context, ratingID int) (*models.Rating, error) {
	query := `MATCH (r:Rating {id: $id})` + ratingReturn
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"id": ratingID})
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	r := ratingFromRecord(results[0])
	return &r, nil
}

func (s *Neo4jStore) ListRatings(ctx context.Context, skip, limit int) ([]models.Rating, error) {
	skip, limit = pageBounds(skip, limit)
	query := `MATCH (r:Rating)` + ratingReturn + ` ORDER BY id SKIP $skip`
	params := map[string]interface{}{"skip": skip}
	if limit >= 0 {
		query += ` LIMIT $limit`
		params["limit"] = limit
	}
	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	out := make([]models.Rating, 0, len(results))
	for _, r := range results {
		out = append(out, ratingFromRecord(r))
	}
	return out, nil
}

func (s *Neo4jStore) UpdateRating(ctx context.Context, ratingID int, rating *models.Rating) (*models.Rating, error) {
	existing, err := s.GetRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	updated := *rating
	updated.ID = ratingID
	if updated.Timestamp == 0 {
		updated.Timestamp = existing.Timestamp
	}
	if err := prepareRating(&updated); err != nil {
		return nil, err
	}
	query := `
		MATCH (r:Rating {id: $id})
		SET r.user_id = $userId, r.movie_id = $movieId, r.rating = $rating, r.timestamp = $timestamp
	` + ratingReturn
	params := ratingParams(updated)
	params["id"] = ratingID
	results, err := s.client.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update rating: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	r := ratingFromRecord(results[0])
	return &r, nil
}

func (s *Neo4jStore) DeleteRating(ctx context.Context, ratingID int) error {
	return s.deleteNode(ctx, `MATCH (n:Rating {id: $id})`, ratingID)
}

func (s *Neo4jStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.CreateUsers(ctx, []models.User{*user})
}

func (s *Neo4jStore) GetUser(ctx context.Context, userID int) (*models.User, error) {
	query := `MATCH (u:User {user_id: $userId}) RETURN u.user_id AS user_id`
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &models.User{UserID: intValue(results[0]["user_id"])}, nil
}

func (s *Neo4jStore) DeleteUser(ctx context.Context, userID int) error {
	return s.deleteNode(ctx, `MATCH (n:User {user_id: $id})`, userID)
}

const watchedReturn = `RETURN w.id AS id, w.user_id AS user_id, w.movie_id AS movie_id, w.rating_id AS rating_id`

func (s *Neo4jStore) CreateWatched(ctx context.Context, watched *models.Watched) error {
	query := nextID("watched") + `
		CREATE (w:Watched {id: id, user_id: $userId, movie_id: $movieId, rating_id: $ratingId})
	` + watchedReturn
	results, err := s.client.ExecuteWriteWithResult(ctx, query, watchedParams(*watched))
	if err != nil {
		return fmt.Errorf("failed to create watched entry: %w", err)
	}
	if len(results) > 0 {
		*watched = watchedFromRecord(results[0])
	}
	return nil
}

func (s *Neo4jStore) GetWatched(ctx context.Context, watchedID int) (*models.Watched, error) {
	query := `MATCH (w:Watched {id: $id}) ` + watchedReturn
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"id": watchedID})
	if err != nil {
		return nil, fmt.Errorf("failed to get watched entry: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	w := watchedFromRecord(results[0])
	return &w, nil
}

func (s *Neo4jStore) UpdateWatched(ctx context.Context, watchedID int, watched *models.Watched) (*models.Watched, error) {
	query := `
		MATCH (w:Watched {id: $id})
		SET w.user_id = $userId, w.movie_id = $movieId, w.rating_id = $ratingId
	` + watchedReturn
	params := watchedParams(*watched)
	params["id"] = watchedID
	results, err := s.client.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update watched entry: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	w := watchedFromRecord(results[0])
	return &w, nil
}

func (s *Neo4jStore) DeleteWatched(ctx context.Context, watchedID int) error {
	return s.deleteNode(ctx, `MATCH (n:Watched {id: $id})`, watchedID)
}

func (s *Neo4jStore) CreateMovies(ctx context.Context, movies []models.Movie) error {
	query := `
		UNWIND $rows AS row
		CREATE (:Movie {
			movie_id: row.movie_id,
			title: row.title,
			release_date: row.release_date,
			genres: row.genres,
			genre_list: row.genre_list,
			url: row.url,
			poster_url: row.poster_url
		})
	`
	for start := 0; start < len(movies); start += importBatchSize {
		end := min(start+importBatchSize, len(movies))
		rows := make([]interface{}, 0, end-start)
		for _, m := range movies[start:end] {
			p := movieParams(m)
			rows = append(rows, map[string]interface{}{
				"movie_id":     m.MovieID,
				"title":        p["title"],
				"release_date": p["releaseDate"],
				"genres":       p["genres"],
				"genre_list":   p["genreList"],
				"url":          p["url"],
				"poster_url":   p["posterUrl"],
			})
		}
		if err := s.write(ctx, query, map[string]interface{}{"rows": rows}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Neo4jStore) CreateRatings(ctx context.Context, ratings []models.Rating) error {
	query := `
		MERGE (seq:Sequence {name: 'rating'})
		ON CREATE SET seq.value = 0
		WITH seq, seq.value AS base
		SET seq.value = base + size($rows)
		WITH base
		UNWIND range(0, size($rows) - 1) AS i
		WITH base, i, $rows[i] AS row
		CREATE (:Rating {id: base + i + 1, user_id: row.user_id, movie_id: row.movie_id,
		                 rating: row.rating, timestamp: row.timestamp})
	`
	for start := 0; start < len(ratings); start += importBatchSize {
		end := min(start+importBatchSize, len(ratings))
		rows := make([]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			if err := prepareRating(&ratings[i]); err != nil {
				return fmt.Errorf("rating %d: %w", i, err)
			}
			p := ratingParams(ratings[i])
			rows = append(rows, map[string]interface{}{
				"user_id":   p["userId"],
				"movie_id":  p["movieId"],
				"rating":    p["rating"],
				"timestamp": p["timestamp"],
			})
		}
		if err := s.write(ctx, query, map[string]interface{}{"rows": rows}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Neo4jStore) CreateUsers(ctx context.Context, users []models.User) error {
	query := `
		UNWIND $rows AS row
		CREATE (:User {user_id: row})
	`
	for start := 0; start < len(users); start += importBatchSize {
		end := min(start+importBatchSize, len(users))
		rows := make([]interface{}, 0, end-start)
		for _, u := range users[start:end] {
			rows = append(rows, u.UserID)
		}
		if err := s.write(ctx, query, map[string]interface{}{"rows": rows}); err != nil {
			return err
		}
	}
	return nil
}

// Status returns the current state of the database
func (s *Neo4jStore) Status(ctx context.Context) (models.ImportStatus, error) {
	query := `
		CALL { MATCH (m:Movie) RETURN count(m) AS movies }
		CALL { MATCH (g:Genre) RETURN count(g) AS genres }
		CALL { MATCH (r:Rating) RETURN count(r) AS ratings }
		CALL { MATCH (u:User) RETURN count(u) AS users }
		CALL { MATCH (w:Watched) RETURN count(w) AS watched }
		RETURN movies, genres, ratings, users, watched
	`
	results, err := s.client.ExecuteRead(ctx, query, nil)
	if err != nil {
		return models.ImportStatus{}, err
	}
	if len(results) == 0 {
		return models.ImportStatus{}, nil
	}
	r := results[0]
	return models.ImportStatus{
		Movies:  int64(intValue(r["movies"])),
		Genres:  int64(intValue(r["genres"])),
		Ratings: int64(intValue(r["ratings"])),
		Users:   int64(intValue(r["users"])),
		Watched: int64(intValue(r["watched"])),
	}, nil
}

func (s *Neo4jStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]interface{}) error {
	if err := s.client.ExecuteWrite(ctx, query, params); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	return nil
}

func (s *Neo4jStore) deleteNode(ctx context.Context, match string, id int) error {
	query := match + ` DETACH DELETE n RETURN count(*) AS deleted`
	results, err := s.client.ExecuteWriteWithResult(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	if len(results) == 0 || intValue(results[0]["deleted"]) == 0 {
		return ErrNotFound
	}
	return nil
}

// nextID increments the named :Sequence node and binds the new value to `id`
func nextID(name string) string {
	return fmt.Sprintf(`
		MERGE (seq:Sequence {name: '%s'})
		ON CREATE SET seq.value = 0
		SET seq.value = seq.value + 1
		WITH seq.value AS id
	`, name)
}

func movieParams(m models.Movie) map[string]interface{} {
	genreList := make([]interface{}, 0)
	for _, g := range m.GenreList() {
		genreList = append(genreList, g)
	}
	return map[string]interface{}{
		"movieId":     m.MovieID,
		"title":       m.Title,
		"releaseDate": optString(m.ReleaseDate),
		"genres":      m.Genres,
		"genreList":   genreList,
		"url":         optString(m.URL),
		"posterUrl":   optString(m.PosterURL),
	}
}

func ratingParams(r models.Rating) map[string]interface{} {
	return map[string]interface{}{
		"userId":    r.UserID,
		"movieId":   r.MovieID,
		"rating":    r.Rating,
		"timestamp": r.Timestamp,
	}
}

func watchedParams(w models.Watched) map[string]interface{} {
	var ratingID interface{}
	if w.RatingID != nil {
		ratingID = *w.RatingID
	}
	return map[string]interface{}{
		"userId":   w.UserID,
		"movieId":  w.MovieID,
		"ratingId": ratingID,
	}
}

func moviesFromRecords(results []map[string]interface{}) []models.Movie {
	out := make([]models.Movie, 0, len(results))
	for _, r := range results {
		out = append(out, movieFromRecord(r))
	}
	return out
}

func movieFromRecord(r map[string]interface{}) models.Movie {
	return models.Movie{
		MovieID:     intValue(r["movie_id"]),
		Title:       stringValue(r["title"]),
		ReleaseDate: stringPtr(r["release_date"]),
		Genres:      stringValue(r["genres"]),
		URL:         stringPtr(r["url"]),
		PosterURL:   stringPtr(r["poster_url"]),
	}
}

func ratingFromRecord(r map[string]interface{}) models.Rating {
	return models.Rating{
		ID:        intValue(r["id"]),
		UserID:    intValue(r["user_id"]),
		MovieID:   intValue(r["movie_id"]),
		Rating:    intValue(r["rating"]),
		Timestamp: int64(intValue(r["timestamp"])),
	}
}

func watchedFromRecord(r map[string]interface{}) models.Watched {
	w := models.Watched{
		ID:      intValue(r["id"]),
		UserID:  intValue(r["user_id"]),
		MovieID: intValue(r["movie_id"]),
	}
	if v, ok := r["rating_id"].(int64); ok {
		id := int(v)
		w.RatingID = &id
	}
	return w
}

func optString(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func intValue(v interface{}) int {
	if n, ok := v.(int64); ok {
		return int(n)
	}
	return 0
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func stringPtr(v interface{}) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}
