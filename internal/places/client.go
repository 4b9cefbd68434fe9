package places

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// searchFields and detailFields pin the Places API field masks.
const (
	searchFields = "place_id,name,formatted_address,geometry,rating,photos,types"
	detailFields = "name,formatted_address,geometry,rating,photos,types,website,formatted_phone_number"
)

// Candidate is a place returned by the text search.
type Candidate struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
	Rating           *float64 `json:"rating"`
	Photos           []Photo  `json:"photos"`
	Types            []string `json:"types"`
}

// Geometry holds the candidate's coordinates.
type Geometry struct {
	Location Location `json:"location"`
}

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Photo is a Places photo reference.
type Photo struct {
	PhotoReference string `json:"photo_reference"`
}

// Details is the richer record returned by the details endpoint.
type Details struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
	Rating           *float64 `json:"rating"`
	Photos           []Photo  `json:"photos"`
	Types            []string `json:"types"`
	Website          string   `json:"website"`
	PhoneNumber      string   `json:"formatted_phone_number"`
}

// Searcher finds place candidates for a free-text query. Satisfied by Client;
// the resolver depends on this instead of the concrete HTTP client.
type Searcher interface {
	FindPlace(ctx context.Context, query string) ([]Candidate, error)
}

// Client talks to the Google Places web service.
type Client struct {
	client  *resty.Client
	apiKey  string
	baseURL string
}

// Config holds configuration for the Places client.
type Config struct {
	APIKey  string
	BaseURL string
}

// NewClient creates a new Places client.
// Parameters:
//   - cfg: Places configuration; BaseURL is overridable for tests.
//
// Returns:
//   - *Client: initialized Places client wrapper.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	// Set timeout to prevent hanging requests
	client.SetTimeout(30 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		client:  client,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
	}
}

type findPlaceResponse struct {
	Candidates   []Candidate `json:"candidates"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
}

type detailsResponse struct {
	Result       *Details `json:"result"`
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
}

// FindPlace runs a findplacefromtext query and returns the candidates.
// Zero candidates is a valid outcome, not an error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - query: free-text search input.
//
// Returns:
//   - []Candidate: matching places, possibly empty.
//   - error: non-nil if the API request fails or reports a hard error status.
func (c *Client) FindPlace(ctx context.Context, query string) ([]Candidate, error) {
	var resp findPlaceResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"input":     query,
			"inputtype": "textquery",
			"fields":    searchFields,
			"key":       c.apiKey,
		}).
		SetResult(&resp).
		Get(c.baseURL + "/findplacefromtext/json")

	if err != nil {
		return nil, fmt.Errorf("failed to call Places API: %w", err)
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("Places API returned error: HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("Places API status %s: %s", resp.Status, resp.ErrorMessage)
	}

	return resp.Candidates, nil
}

// Details fetches the richer place record for a place ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - placeID: Google place identifier.
//
// Returns:
//   - *Details: detailed place information.
//   - error: non-nil if the API request fails or the place is unknown.
func (c *Client) Details(ctx context.Context, placeID string) (*Details, error) {
	var resp detailsResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"place_id": placeID,
			"fields":   detailFields,
			"key":      c.apiKey,
		}).
		SetResult(&resp).
		Get(c.baseURL + "/details/json")

	if err != nil {
		return nil, fmt.Errorf("failed to call Places details API: %w", err)
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("Places details API returned error: HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}
	if resp.Status != "OK" || resp.Result == nil {
		return nil, fmt.Errorf("Places details API status %s: %s", resp.Status, resp.ErrorMessage)
	}

	return resp.Result, nil
}
