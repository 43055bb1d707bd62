package database

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/models"
)

// PlaceholderPoster is used for movies missing from movie_poster.csv
const PlaceholderPoster = "https://placehold.jp/500x750.png"

// MovieLens file names expected under the data directory
const (
	GenreFile  = "u.genre"
	ItemFile   = "u.item"
	RatingFile = "u.data"
	UserFile   = "u.user"
	URLFile    = "movie_url.csv"
	PosterFile = "movie_poster.csv"
)

// u.item columns before the genre flags
const itemFixedColumns = 5

// MovieLensImporter seeds an empty store from the MovieLens 100k files
type MovieLensImporter struct {
	store Store
	log   *logger.Logger
}

// NewMovieLensImporter creates a new importer
func NewMovieLensImporter(store Store, log *logger.Logger) *MovieLensImporter {
	return &MovieLensImporter{store: store, log: log.With("component", "importer")}
}

// ImportAllData imports every dataset in dependency order. Each step is skipped when its
// table already holds rows, so restarting the service never duplicates data.
func (i *MovieLensImporter) ImportAllData(ctx context.Context, dataDir string) error {
	i.log.Info("Starting MovieLens import", "dir", dataDir)

	status, err := i.store.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read import status: %w", err)
	}

	steps := []struct {
		name     string
		existing int64
		fn       func(context.Context, string) error
	}{
		{"genres", status.Genres, i.ImportGenres},
		{"movies", status.Movies, i.ImportMovies},
		{"ratings", status.Ratings, i.ImportRatings},
		{"users", status.Users, i.ImportUsers},
	}

	for _, step := range steps {
		if step.existing > 0 {
			i.log.Info("Skipping import, table already populated", "step", step.name, "rows", step.existing)
			continue
		}
		i.log.Info("Importing", "step", step.name)
		if err := step.fn(ctx, dataDir); err != nil {
			return fmt.Errorf("failed to import %s: %w", step.name, err)
		}
	}

	i.log.Info("MovieLens import completed")
	return nil
}

// ImportGenres loads the genre vocabulary from u.genre ("name|index" per line)
func (i *MovieLensImporter) ImportGenres(ctx context.Context, dataDir string) error {
	genres, err := readGenres(filepath.Join(dataDir, GenreFile))
	if err != nil {
		return err
	}
	if err := i.store.CreateGenres(ctx, genres); err != nil {
		return err
	}
	i.log.Info("Imported genres", "count", len(genres))
	return nil
}

// ImportMovies loads u.item, resolving genre flags through u.genre and attaching the
// IMDb url and poster from the companion CSV files.
func (i *MovieLensImporter) ImportMovies(ctx context.Context, dataDir string) error {
	genres, err := readGenres(filepath.Join(dataDir, GenreFile))
	if err != nil {
		return err
	}
	urls, err := readIDMap(filepath.Join(dataDir, URLFile))
	if err != nil {
		return err
	}
	posters, err := readIDMap(filepath.Join(dataDir, PosterFile))
	if err != nil {
		return err
	}

	names := make(map[int]string, len(genres))
	for _, g := range genres {
		names[g.GenreID] = g.Name
	}

	var movies []models.Movie
	err = scanLines(filepath.Join(dataDir, ItemFile), true, func(line string) error {
		m, err := parseItem(line, names)
		if err != nil {
			return err
		}
		if u, ok := urls[m.MovieID]; ok {
			m.URL = &u
		}
		poster := PlaceholderPoster
		if p, ok := posters[m.MovieID]; ok {
			poster = p
		}
		m.PosterURL = &poster
		movies = append(movies, m)
		return nil
	})
	if err != nil {
		return err
	}

	if err := i.store.CreateMovies(ctx, movies); err != nil {
		return err
	}
	i.log.Info("Imported movies", "count", len(movies))
	return nil
}

// ImportRatings loads u.data (tab separated user, movie, rating, timestamp)
func (i *MovieLensImporter) ImportRatings(ctx context.Context, dataDir string) error {
	var ratings []models.Rating
	err := scanLines(filepath.Join(dataDir, RatingFile), false, func(line string) error {
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return fmt.Errorf("expected 4 fields, got %d", len(fields))
		}
		values := make([]int64, 4)
		for n, f := range fields {
			v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid field %q: %w", f, err)
			}
			values[n] = v
		}
		ratings = append(ratings, models.Rating{
			UserID:    int(values[0]),
			MovieID:   int(values[1]),
			Rating:    int(values[2]),
			Timestamp: values[3],
		})
		return nil
	})
	if err != nil {
		return err
	}

	if err := i.store.CreateRatings(ctx, ratings); err != nil {
		return err
	}
	i.log.Info("Imported ratings", "count", len(ratings))
	return nil
}

// ImportUsers loads user ids from the first column of u.user
func (i *MovieLensImporter) ImportUsers(ctx context.Context, dataDir string) error {
	var users []models.User
	err := scanLines(filepath.Join(dataDir, UserFile), false, func(line string) error {
		id, err := strconv.Atoi(strings.SplitN(line, "|", 2)[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		users = append(users, models.User{UserID: id})
		return nil
	})
	if err != nil {
		return err
	}

	if err := i.store.CreateUsers(ctx, users); err != nil {
		return err
	}
	i.log.Info("Imported users", "count", len(users))
	return nil
}

// GetImportStatus returns the current row counts of the store
func (i *MovieLensImporter) GetImportStatus(ctx context.Context) (models.ImportStatus, error) {
	return i.store.Status(ctx)
}

func readGenres(path string) ([]models.Genre, error) {
	var genres []models.Genre
	err := scanLines(path, true, func(line string) error {
		name, index, ok := strings.Cut(line, "|")
		if !ok {
			return fmt.Errorf("malformed genre line %q", line)
		}
		id, err := strconv.Atoi(index)
		if err != nil {
			return fmt.Errorf("invalid genre index %q: %w", index, err)
		}
		genres = append(genres, models.Genre{GenreID: id, Name: name})
		return nil
	})
	return genres, err
}

// parseItem decodes one u.item row: id|title|release|video release|imdb url|flags...
func parseItem(line string, genreNames map[int]string) (models.Movie, error) {
	fields := strings.Split(line, "|")
	if len(fields) < itemFixedColumns {
		return models.Movie{}, fmt.Errorf("expected at least %d fields, got %d", itemFixedColumns, len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.Movie{}, fmt.Errorf("invalid movie id %q: %w", fields[0], err)
	}

	genres := make([]string, 0)
	for idx, flag := range fields[itemFixedColumns:] {
		if strings.TrimSpace(flag) != "1" {
			continue
		}
		name, ok := genreNames[idx]
		if !ok {
			return models.Movie{}, fmt.Errorf("movie %d: unknown genre index %d", id, idx)
		}
		genres = append(genres, name)
	}

	release := fields[2]
	return models.Movie{
		MovieID:     id,
		Title:       fields[1],
		ReleaseDate: &release,
		Genres:      strings.Join(genres, models.GenreSeparator),
	}, nil
}

// readIDMap reads a two-column "movie_id,value" CSV. A missing file yields an empty map.
func readIDMap(path string) (map[int]string, error) {
	out := make(map[int]string)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		if len(row) < 2 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			// header row
			continue
		}
		out[id] = row[1]
	}
	return out, nil
}

// scanLines calls fn for every non-blank line of path. Latin-1 files are decoded to UTF-8.
func scanLines(path string, latin1 bool, fn func(string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var r io.Reader = f
	if latin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(f)
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return nil
}
