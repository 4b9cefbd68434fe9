package resolve

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/places"
)

func TestDiceSimilarity(t *testing.T) {
	testCases := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "Blue Bottle Coffee", b: "Blue Bottle Coffee", want: 1.0},
		{name: "case insensitive", a: "TARTINE", b: "tartine", want: 1.0},
		{name: "whitespace ignored", a: "Blue Bottle", b: "bluebottle", want: 1.0},
		{name: "disjoint", a: "abcd", b: "wxyz", want: 0.0},
		{name: "both empty", a: "", b: "", want: 0.0},
		{name: "one empty", a: "cafe", b: "", want: 0.0},
		{name: "single char", a: "a", b: "ab", want: 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DiceSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("DiceSimilarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestDiceSimilarityNearMatch(t *testing.T) {
	// A trailing "Co." should barely dent the score.
	got := DiceSimilarity("Blue Bottle Coffee", "Blue Bottle Coffee Co.")
	if got <= 0.8 {
		t.Errorf("DiceSimilarity = %v, want > 0.8 for a near-identical name", got)
	}
	if got >= 1.0 {
		t.Errorf("DiceSimilarity = %v, want < 1.0 for a non-identical name", got)
	}
	if !(DiceSimilarity("Blue Bottle Coffee", "Ritual Roasters") < got) {
		t.Error("A near match should score above an unrelated name")
	}
}

func TestDiceSimilaritySymmetry(t *testing.T) {
	a, b := "Tartine Bakery", "Tartine Manufactory"
	if DiceSimilarity(a, b) != DiceSimilarity(b, a) {
		t.Error("DiceSimilarity should be symmetric")
	}
}

func rating(v float64) *float64 { return &v }

// verifiedCandidate carries all three verification signals.
func verifiedCandidate(name, address string) *places.Candidate {
	return &places.Candidate{
		PlaceID:          "place-1",
		Name:             name,
		FormattedAddress: address,
		Rating:           rating(4.6),
		Photos:           []places.Photo{{PhotoReference: "ref"}},
		Types:            []string{"cafe"},
	}
}

func TestConfidence(t *testing.T) {
	t.Run("perfect match with full verification is clamped to 1", func(t *testing.T) {
		entities := &domain.VenueEntities{
			Name:    "Blue Bottle Coffee",
			Address: "300 Webster St, Oakland, CA",
		}
		got := Confidence(entities, verifiedCandidate("Blue Bottle Coffee", "300 Webster St, Oakland, CA"))
		if got != 1.0 {
			t.Errorf("Confidence = %v, want exactly 1.0", got)
		}
	})

	t.Run("city substring earns partial address credit", func(t *testing.T) {
		withCity := Confidence(
			&domain.VenueEntities{Name: "Tartine", City: "San Francisco"},
			&places.Candidate{Name: "Tartine", FormattedAddress: "600 Guerrero St, San Francisco, CA"},
		)
		withoutCity := Confidence(
			&domain.VenueEntities{Name: "Tartine"},
			&places.Candidate{Name: "Tartine", FormattedAddress: "600 Guerrero St, San Francisco, CA"},
		)
		want := 0.5 * 0.3
		if math.Abs((withCity-withoutCity)-want) > 1e-9 {
			t.Errorf("City credit = %v, want %v", withCity-withoutCity, want)
		}
	})

	t.Run("wrong city earns no address credit", func(t *testing.T) {
		withWrongCity := Confidence(
			&domain.VenueEntities{Name: "Tartine", City: "Portland"},
			&places.Candidate{Name: "Tartine", FormattedAddress: "600 Guerrero St, San Francisco, CA"},
		)
		baseline := Confidence(
			&domain.VenueEntities{Name: "Tartine"},
			&places.Candidate{Name: "Tartine", FormattedAddress: "600 Guerrero St, San Francisco, CA"},
		)
		if withWrongCity != baseline {
			t.Errorf("Wrong city should earn nothing: got %v, baseline %v", withWrongCity, baseline)
		}
	})

	t.Run("verification signals accumulate", func(t *testing.T) {
		entities := &domain.VenueEntities{Name: "Nopa"}
		bare := Confidence(entities, &places.Candidate{Name: "Nopa"})
		withRating := Confidence(entities, &places.Candidate{Name: "Nopa", Rating: rating(4.2)})
		full := Confidence(entities, verifiedCandidate("Nopa", ""))

		if math.Abs((withRating-bare)-0.5*0.2) > 1e-9 {
			t.Errorf("Rating signal = %v, want %v", withRating-bare, 0.5*0.2)
		}
		if math.Abs((full-bare)-0.2) > 1e-9 {
			t.Errorf("Full verification = %v, want full 0.2 bucket", full-bare)
		}
	})

	t.Run("missing name contributes nothing", func(t *testing.T) {
		got := Confidence(&domain.VenueEntities{}, &places.Candidate{Name: "Nopa"})
		if got != 0 {
			t.Errorf("Confidence = %v, want 0 for empty entities", got)
		}
	})
}

// fakeSearcher returns canned candidates or an error.
type fakeSearcher struct {
	candidates []places.Candidate
	err        error
	lastQuery  string
}

func (f *fakeSearcher) FindPlace(_ context.Context, query string) ([]places.Candidate, error) {
	f.lastQuery = query
	return f.candidates, f.err
}

func TestResolverNoName(t *testing.T) {
	r := NewResolver(&fakeSearcher{})
	res, err := r.Resolve(context.Background(), &domain.VenueEntities{City: "Oakland"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Confidence != 0 || res.Match != nil {
		t.Errorf("Expected zero-confidence non-match, got %+v", res)
	}
	if res.Reason != "No venue name extracted" {
		t.Errorf("Reason = %q", res.Reason)
	}
	if !res.NeedsReview() {
		t.Error("No-name resolution must need review")
	}
}

func TestResolverNoCandidates(t *testing.T) {
	r := NewResolver(&fakeSearcher{})
	res, err := r.Resolve(context.Background(), &domain.VenueEntities{Name: "Ghost Kitchen"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Reason != "No matching places found" {
		t.Errorf("Reason = %q", res.Reason)
	}
	if !res.NeedsReview() {
		t.Error("Empty result set must need review")
	}
}

func TestResolverQueryBuilding(t *testing.T) {
	searcher := &fakeSearcher{}
	r := NewResolver(searcher)

	if _, err := r.Resolve(context.Background(), &domain.VenueEntities{
		Name: "Tartine", Address: "600 Guerrero St", City: "San Francisco",
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if searcher.lastQuery != "Tartine 600 Guerrero St" {
		t.Errorf("Address should win over city in the query: %q", searcher.lastQuery)
	}

	if _, err := r.Resolve(context.Background(), &domain.VenueEntities{
		Name: "Tartine", City: "San Francisco",
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if searcher.lastQuery != "Tartine San Francisco" {
		t.Errorf("City should back up a missing address: %q", searcher.lastQuery)
	}
}

func TestResolverAcceptance(t *testing.T) {
	t.Run("strong match is accepted", func(t *testing.T) {
		r := NewResolver(&fakeSearcher{candidates: []places.Candidate{
			*verifiedCandidate("Blue Bottle Coffee", "300 Webster St, Oakland, CA"),
		}})
		res, err := r.Resolve(context.Background(), &domain.VenueEntities{
			Name: "Blue Bottle Coffee", Address: "300 Webster St, Oakland, CA",
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !res.Accepted() || res.NeedsReview() {
			t.Errorf("Expected accepted resolution, got %+v", res)
		}
		if res.Reason != "Match found" {
			t.Errorf("Reason = %q", res.Reason)
		}
	})

	t.Run("exact threshold is accepted", func(t *testing.T) {
		// Name-only perfect match with no verification scores exactly 0.5.
		r := NewResolver(&fakeSearcher{candidates: []places.Candidate{
			{Name: "Nopa"},
		}})
		res, err := r.Resolve(context.Background(), &domain.VenueEntities{Name: "Nopa"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if math.Abs(res.Confidence-0.5) > 1e-9 {
			t.Fatalf("Confidence = %v, want 0.5", res.Confidence)
		}
		if !res.Accepted() {
			t.Error("Confidence exactly at the threshold must be accepted")
		}
		if res.NeedsReview() {
			t.Error("Threshold match must not need review")
		}
	})

	t.Run("weak match needs review", func(t *testing.T) {
		r := NewResolver(&fakeSearcher{candidates: []places.Candidate{
			{Name: "Completely Different Venue"},
		}})
		res, err := r.Resolve(context.Background(), &domain.VenueEntities{Name: "Nopa"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if res.Accepted() || !res.NeedsReview() {
			t.Errorf("Expected review-needed resolution, got %+v", res)
		}
		if res.Reason != "Low confidence match" {
			t.Errorf("Reason = %q", res.Reason)
		}
	})
}

func TestResolverSearchError(t *testing.T) {
	r := NewResolver(&fakeSearcher{err: errors.New("quota exceeded")})
	if _, err := r.Resolve(context.Background(), &domain.VenueEntities{Name: "Nopa"}); err == nil {
		t.Error("Expected search failure to surface as an error")
	}
}
