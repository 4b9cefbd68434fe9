package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// OCR Prompts (Vision Language Model)
// ============================================================================

// OCRSystemPrompt defines the role for frame text extraction.
const OCRSystemPrompt = `You are an OCR assistant for short-form food videos. You extract on-screen text from video frames: overlays, captions, signage, storefronts, menus.`

// OCRUserPrompt instructs the model to return detections as JSON with
// per-item confidence.
const OCRUserPrompt = `Extract every distinct piece of visible text from this video frame.

Return ONLY a JSON array, no additional text:
[{"text": "exact text as shown", "confidence": 0.0-1.0}]

Rules:
- One entry per distinct text element (sign, overlay, caption line)
- confidence reflects how certain you are of the exact characters
- Do not translate or correct spelling
- If the frame contains no text, return []`

// ============================================================================
// Entity Extraction Prompts (LLM)
// ============================================================================

// EntitySystemPrompt pins the extractor to strict JSON output.
const EntitySystemPrompt = `You are a precise venue information extractor. Return only valid JSON.`

// entityPromptTemplate is the venue extraction instruction. The combined
// transcript plus frame text is interpolated into CONTENT.
const entityPromptTemplate = `You are a venue extraction specialist analyzing short-form video content.

Extract venue information from the following content and return ONLY valid JSON.

CONTENT:
%s

INSTRUCTIONS:
1. Identify the PRIMARY venue being discussed (if multiple mentioned, choose the main one)
2. Extract the venue name (exact as mentioned or shown)
3. Extract the full address if available (street, city, state/country)
4. Extract specific specialties or notable items mentioned (dishes, drinks, features)
5. Determine the category (cafe, restaurant, bar, bakery, food_truck, or other)

RULES:
- If information is missing or uncertain, use null
- Specialties should be specific items/dishes, not generic adjectives
- Address should be as complete as possible
- Return ONLY the JSON object, no additional text

REQUIRED JSON FORMAT:
{
  "name": "venue name or null",
  "address": "full address or null",
  "city": "city name or null",
  "specialties": ["item1", "item2"] or [],
  "category": "cafe|restaurant|bar|bakery|food_truck|other"
}`

// BuildEntityPrompt assembles the user prompt from the audio transcript and
// the cleaned frame texts. Missing inputs are stated explicitly so the model
// does not invent content for them.
func BuildEntityPrompt(transcript string, frameTexts []string) string {
	audioSection := transcript
	if strings.TrimSpace(audioSection) == "" {
		audioSection = "No audio transcript available"
	}

	visualSection := "No text detected in frames"
	if len(frameTexts) > 0 {
		visualSection = strings.Join(frameTexts, " | ")
	}

	combined := fmt.Sprintf("AUDIO TRANSCRIPT:\n%s\n\nVISUAL TEXT (from video frames):\n%s", audioSection, visualSection)
	return fmt.Sprintf(entityPromptTemplate, combined)
}
