package ratingexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/yishak-cs/movierec/internal/models"
)

// PageSize is the number of ratings read from the store per query
const PageSize = 5000

// RatingLister is the store capability the exporter needs
type RatingLister interface {
	ListRatings(ctx context.Context, skip, limit int) ([]models.Rating, error)
}

// Write streams every rating to w as headerless "user_id,movie_id,rating" rows, in
// rating id order, and returns how many rows were written.
func Write(ctx context.Context, store RatingLister, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	written := 0
	for skip := 0; ; skip += PageSize {
		page, err := store.ListRatings(ctx, skip, PageSize)
		if err != nil {
			return written, fmt.Errorf("failed to read ratings at offset %d: %w", skip, err)
		}
		for _, r := range page {
			row := []string{strconv.Itoa(r.UserID), strconv.Itoa(r.MovieID), strconv.Itoa(r.Rating)}
			if err := cw.Write(row); err != nil {
				return written, fmt.Errorf("failed to write row: %w", err)
			}
			written++
		}
		if len(page) < PageSize {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("failed to flush csv: %w", err)
	}
	return written, nil
}

// WriteFile exports into a newly created file at path. The file is closed before
// returning and a failed close is reported, so a nil error means the data reached the file.
func WriteFile(ctx context.Context, store RatingLister, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := Write(ctx, store, f)
	if err != nil {
		f.Close()
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return n, nil
}
