package validate

import "testing"

type ratingInput struct {
	UserID int    `json:"user_id" validate:"gt=0"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Title  string `json:"movie_title" validate:"required"`
}

func TestMap(t *testing.T) {
	if errs := Map(ratingInput{UserID: 1, Rating: 3, Title: "x"}); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}

	errs := Map(ratingInput{UserID: 0, Rating: 9})
	want := map[string]string{
		"user_id":     "must be > 0",
		"rating":      "must be <= 5",
		"movie_title": "is required",
	}
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), errs)
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Fatalf("%s: expected %q, got %q", field, msg, errs[field])
		}
	}
}

func TestMapAcceptsPointers(t *testing.T) {
	errs := Map(&ratingInput{UserID: 1, Rating: 0, Title: "x"})
	if errs["rating"] != "must be >= 1" {
		t.Fatalf("unexpected errors %v", errs)
	}
}
