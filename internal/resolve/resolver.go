package resolve

import (
	"context"
	"fmt"

	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/logger"
	"github.com/timmy/reelscout/internal/places"
)

// AcceptThreshold is the confidence at or above which a match is accepted
// without manual review.
const AcceptThreshold = 0.5

// Resolution is the outcome of matching extracted entities against the
// place directory.
type Resolution struct {
	Confidence float64
	Match      *places.Candidate
	Reason     string
}

// Accepted reports whether the resolution cleared the review threshold.
func (r *Resolution) Accepted() bool {
	return r.Match != nil && r.Confidence >= AcceptThreshold
}

// NeedsReview reports whether a human should look at this resolution: there
// was no match at all, or the match scored below the threshold.
func (r *Resolution) NeedsReview() bool {
	return !r.Accepted()
}

// Resolver matches extracted venue entities against a place search backend.
type Resolver struct {
	searcher places.Searcher
}

// NewResolver creates a Resolver on top of the given search backend.
func NewResolver(searcher places.Searcher) *Resolver {
	return &Resolver{searcher: searcher}
}

// Resolve searches for the extracted venue and scores the best candidate.
// A missing venue name or an empty result set yields a zero-confidence
// resolution rather than an error; only transport failures are errors.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - entities: extracted venue fields.
//
// Returns:
//   - *Resolution: match outcome with confidence and reason.
//   - error: non-nil only if the search backend fails.
func (r *Resolver) Resolve(ctx context.Context, entities *domain.VenueEntities) (*Resolution, error) {
	if entities == nil || entities.Name == "" {
		return &Resolution{Confidence: 0, Reason: "No venue name extracted"}, nil
	}

	query := buildQuery(entities)
	logger.CtxInfo(ctx, "Searching places for: %q", query)

	candidates, err := r.searcher.FindPlace(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("place search failed: %w", err)
	}
	if len(candidates) == 0 {
		return &Resolution{Confidence: 0, Reason: "No matching places found"}, nil
	}

	match := candidates[0]
	confidence := Confidence(entities, &match)

	reason := "Low confidence match"
	if confidence >= AcceptThreshold {
		reason = "Match found"
	}
	logger.CtxInfo(ctx, "Place resolved with confidence %.1f%%", confidence*100)

	return &Resolution{
		Confidence: confidence,
		Match:      &match,
		Reason:     reason,
	}, nil
}

// buildQuery joins the venue name with its most specific known location.
func buildQuery(entities *domain.VenueEntities) string {
	query := entities.Name
	if entities.Address != "" {
		query += " " + entities.Address
	} else if entities.City != "" {
		query += " " + entities.City
	}
	return query
}
