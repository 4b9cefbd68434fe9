package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Transcriber converts a video's audio track to text using an OpenAI-compatible
// transcription endpoint (Whisper). An empty transcript is a valid outcome:
// plenty of reels carry music only.
type Transcriber struct {
	client   *resty.Client
	model    string
	endpoint string
}

// TranscriberConfig holds configuration for the transcription client.
type TranscriberConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewTranscriber creates a new transcription client.
// Parameters:
//   - cfg: transcription configuration including model and API key.
//
// Returns:
//   - *Transcriber: initialized transcription client wrapper.
func NewTranscriber(cfg *TranscriberConfig) *Transcriber {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	// Set timeout to prevent hanging requests; audio uploads can be slow
	client.SetTimeout(120 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	return &Transcriber{
		client:   client,
		model:    model,
		endpoint: baseURL + "/audio/transcriptions",
	}
}

// Transcribe uploads the audio file and returns the plain-text transcript.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - audioPath: local audio file path.
//
// Returns:
//   - string: transcript text, possibly empty.
//   - error: non-nil if the API request fails.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	httpResp, err := t.client.R().
		SetContext(ctx).
		SetFile("file", audioPath).
		SetFormData(map[string]string{
			"model":           t.model,
			"language":        "en",
			"response_format": "text",
		}).
		Post(t.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call transcription API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return "", fmt.Errorf("transcription API returned error: HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	return strings.TrimSpace(string(httpResp.Body())), nil
}
