package resolve

import (
	"strings"

	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/places"
)

// Scoring weights. Name similarity dominates; address narrows the match;
// verification signals indicate the listing is real and maintained.
const (
	nameWeight         = 0.5
	addressWeight      = 0.3
	verificationWeight = 0.2

	// cityPartialCredit applies when only the extracted city, not a full
	// address, can be checked against the candidate address.
	cityPartialCredit = 0.5

	ratingSignal = 0.5
	photosSignal = 0.25
	typesSignal  = 0.25
)

// Confidence scores how well a search candidate matches the extracted venue
// entities. The result is clamped to [0, 1].
func Confidence(entities *domain.VenueEntities, candidate *places.Candidate) float64 {
	score := 0.0

	// Name similarity (50% weight)
	if entities.Name != "" && candidate.Name != "" {
		score += DiceSimilarity(entities.Name, candidate.Name) * nameWeight
	}

	// Address similarity (30% weight); partial credit when only the city
	// is known and it appears in the candidate address.
	if entities.Address != "" && candidate.FormattedAddress != "" {
		score += DiceSimilarity(entities.Address, candidate.FormattedAddress) * addressWeight
	} else if entities.City != "" && candidate.FormattedAddress != "" {
		if strings.Contains(strings.ToLower(candidate.FormattedAddress), strings.ToLower(entities.City)) {
			score += cityPartialCredit * addressWeight
		}
	}

	// Verification signals (20% weight)
	verification := 0.0
	if candidate.Rating != nil {
		verification += ratingSignal
	}
	if len(candidate.Photos) > 0 {
		verification += photosSignal
	}
	if len(candidate.Types) > 0 {
		verification += typesSignal
	}
	score += verification * verificationWeight

	if score > 1.0 {
		score = 1.0
	}
	return score
}
