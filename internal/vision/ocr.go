package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/reelscout/internal/prompts"
)

// TextDetection is a single piece of text recognized in a frame, with the
// model's confidence in [0, 1].
type TextDetection struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognizer extracts on-screen text from a single frame image.
type Recognizer interface {
	RecognizeFrame(ctx context.Context, framePath string) ([]TextDetection, error)
}

// VLMRecognizer implements Recognizer using a vision language model behind
// an OpenAI-compatible Chat Completion endpoint.
type VLMRecognizer struct {
	client   *resty.Client
	model    string
	endpoint string
}

// Config holds configuration for the OCR recognizer.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewVLMRecognizer creates a new VLM-backed OCR recognizer.
// Parameters:
//   - cfg: OCR configuration including model and API key.
//
// Returns:
//   - *VLMRecognizer: initialized OCR client wrapper.
func NewVLMRecognizer(cfg *Config) *VLMRecognizer {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Set timeout to prevent hanging requests
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &VLMRecognizer{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type ocrRequest struct {
	Model     string       `json:"model"`
	Messages  []ocrMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens"`
}

type ocrMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type ocrTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ocrImageContent struct {
	Type     string      `json:"type"`
	ImageURL ocrImageURL `json:"image_url"`
}

type ocrImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type ocrResponse struct {
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

// RecognizeFrame extracts on-screen text from one frame image.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - framePath: local JPEG/PNG frame path.
//
// Returns:
//   - []TextDetection: recognized text items with confidences (may be empty).
//   - error: non-nil if the API request or response parsing fails.
func (r *VLMRecognizer) RecognizeFrame(ctx context.Context, framePath string) ([]TextDetection, error) {
	imageData, err := os.ReadFile(framePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", framePath, err)
	}

	mimeType := frameMIMEType(framePath)
	base64Image := base64.StdEncoding.EncodeToString(imageData)
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64Image)

	req := ocrRequest{
		Model: r.model,
		Messages: []ocrMessage{
			{
				Role:    "system",
				Content: prompts.OCRSystemPrompt,
			},
			{
				Role: "user",
				Content: []interface{}{
					ocrTextContent{
						Type: "text",
						Text: prompts.OCRUserPrompt,
					},
					ocrImageContent{
						Type: "image_url",
						ImageURL: ocrImageURL{
							URL:    dataURL,
							Detail: "auto", // Use auto for better text recognition
						},
					},
				},
			},
		},
		MaxTokens: 400,
	}

	var resp ocrResponse
	httpResp, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(r.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call OCR API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		} else {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		}
		return nil, fmt.Errorf("OCR API returned error: %s", errorMsg)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("OCR API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OCR API (status: %d)", httpResp.StatusCode())
	}

	return parseDetections(resp.Choices[0].Message.Content)
}

// parseDetections parses the model's JSON array of detections, tolerating a
// fenced code block around it.
func parseDetections(content string) ([]TextDetection, error) {
	cleaned := stripCodeFence(content)
	if cleaned == "" {
		return nil, nil
	}

	var detections []TextDetection
	if err := json.Unmarshal([]byte(cleaned), &detections); err != nil {
		return nil, fmt.Errorf("failed to parse OCR response %q: %w", cleaned, err)
	}
	return detections, nil
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

func frameMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
