package scoring

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Factors is the learned bias and latent vector of one user or item
type Factors struct {
	Bias    float64   `json:"bias"`
	Factors []float64 `json:"factors"`
}

// Model is a biased matrix-factorization predictor:
//
//	est = mu + b_u + b_i + q_i . p_u
//
// Unknown users or items contribute no bias and no factor term, so a pair where both are
// unknown falls back to the global mean. Estimates are clipped to [RatingMin, RatingMax].
// A Model is read-only after loading.
type Model struct {
	GlobalMean float64          `json:"global_mean"`
	RatingMin  float64          `json:"rating_min"`
	RatingMax  float64          `json:"rating_max"`
	Users      map[int]*Factors `json:"users"`
	Items      map[int]*Factors `json:"items"`
}

// LoadModel reads a model artifact from disk
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	return ParseModel(data)
}

// ParseModel decodes and validates a model artifact
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the rating scale and that every user and item vector has the same width
func (m *Model) Validate() error {
	if m.RatingMin >= m.RatingMax {
		return fmt.Errorf("invalid rating scale [%v, %v]", m.RatingMin, m.RatingMax)
	}
	width := -1
	check := func(kind string, set map[int]*Factors) error {
		for id, f := range set {
			if f == nil {
				return fmt.Errorf("%s %d: missing factors", kind, id)
			}
			if width == -1 {
				width = len(f.Factors)
			} else if len(f.Factors) != width {
				return fmt.Errorf("%s %d: expected %d factors, got %d", kind, id, width, len(f.Factors))
			}
		}
		return nil
	}
	if err := check("user", m.Users); err != nil {
		return err
	}
	return check("item", m.Items)
}

// Score implements Scorer
func (m *Model) Score(ctx context.Context, userID, movieID int) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.Predict(userID, movieID), nil
}

// Predict returns the clipped estimate for a (user, movie) pair
func (m *Model) Predict(userID, movieID int) float64 {
	est := m.GlobalMean

	user, userKnown := m.Users[userID]
	item, itemKnown := m.Items[movieID]
	if userKnown {
		est += user.Bias
	}
	if itemKnown {
		est += item.Bias
	}
	if userKnown && itemKnown {
		est += dot(user.Factors, item.Factors)
	}

	return clip(est, m.RatingMin, m.RatingMax)
}

// ErrEmptyModel is returned by Stats on a model with no users or items
var ErrEmptyModel = errors.New("model has no users or items")

// Stats summarises the model for startup logging
func (m *Model) Stats() (users, items, factors int, err error) {
	if len(m.Users) == 0 || len(m.Items) == 0 {
		return len(m.Users), len(m.Items), 0, ErrEmptyModel
	}
	for _, f := range m.Items {
		factors = len(f.Factors)
		break
	}
	return len(m.Users), len(m.Items), factors, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
