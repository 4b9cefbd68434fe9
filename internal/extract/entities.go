package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/prompts"
)

// ParseError indicates the model returned something that is not the required
// JSON object. It carries the raw content for diagnosis.
type ParseError struct {
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse entity extraction response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EntityExtractor pulls structured venue information out of the combined
// transcript and frame text using an OpenAI-compatible Chat Completion model.
type EntityExtractor struct {
	client   *resty.Client
	model    string
	endpoint string
}

// EntityConfig holds configuration for the entity extraction client.
type EntityConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewEntityExtractor creates a new entity extraction client.
// Parameters:
//   - cfg: extraction configuration including model and API key.
//
// Returns:
//   - *EntityExtractor: initialized extraction client wrapper.
func NewEntityExtractor(cfg *EntityConfig) *EntityExtractor {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Set timeout to prevent hanging requests
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &EntityExtractor{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Extract runs entity extraction over the transcript and cleaned frame texts.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - transcript: audio transcript, possibly empty.
//   - frameTexts: cleaned on-screen texts, possibly empty.
//
// Returns:
//   - *domain.VenueEntities: extracted venue fields, category normalized.
//   - error: non-nil if the API request fails or the response is not JSON.
func (e *EntityExtractor) Extract(ctx context.Context, transcript string, frameTexts []string) (*domain.VenueEntities, error) {
	req := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.EntitySystemPrompt},
			{Role: "user", Content: prompts.BuildEntityPrompt(transcript, frameTexts)},
		},
		// Lower temperature for more consistent output
		Temperature: 0.3,
		MaxTokens:   500,
	}

	var resp chatResponse
	httpResp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(e.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call entity extraction API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		} else {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		}
		return nil, fmt.Errorf("entity extraction API returned error: %s", errorMsg)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("entity extraction API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from entity extraction API (status: %d)", httpResp.StatusCode())
	}

	return ParseEntities(resp.Choices[0].Message.Content)
}

// rawEntities matches the model's JSON shape, where missing fields come back
// as null.
type rawEntities struct {
	Name        *string  `json:"name"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	Specialties []string `json:"specialties"`
	Category    *string  `json:"category"`
}

// ParseEntities parses the model output into VenueEntities, tolerating a
// fenced code block around the JSON. Null fields become empty values and an
// unknown category collapses to "other".
func ParseEntities(content string) (*domain.VenueEntities, error) {
	cleaned := stripCodeFence(content)

	var raw rawEntities
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &ParseError{Content: content, Err: err}
	}

	entities := &domain.VenueEntities{
		Name:        derefString(raw.Name),
		Address:     derefString(raw.Address),
		City:        derefString(raw.City),
		Specialties: raw.Specialties,
		Category:    domain.CategoryOther,
	}
	if raw.Category != nil && domain.ValidCategory(domain.Category(*raw.Category)) {
		entities.Category = domain.Category(*raw.Category)
	}
	return entities, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
