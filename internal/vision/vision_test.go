package vision

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

// fakeRecognizer returns canned detections per frame path.
type fakeRecognizer struct {
	mu         sync.Mutex
	detections map[string][]TextDetection
	failures   map[string]bool
	calls      []string
}

func (f *fakeRecognizer) RecognizeFrame(_ context.Context, framePath string) ([]TextDetection, error) {
	f.mu.Lock()
	f.calls = append(f.calls, framePath)
	f.mu.Unlock()

	if f.failures[framePath] {
		return nil, errors.New("recognition failed")
	}
	return f.detections[framePath], nil
}

func TestCleanTexts(t *testing.T) {
	testCases := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "collapses internal whitespace",
			input: []string{"Blue   Bottle\t Coffee"},
			want:  []string{"Blue Bottle Coffee"},
		},
		{
			name:  "drops exact duplicates keeping first",
			input: []string{"Open Daily", "Open Daily", "Est. 2002"},
			want:  []string{"Open Daily", "Est. 2002"},
		},
		{
			name:  "drops short fragments",
			input: []string{"abc", "ab", "four"},
			want:  []string{"four"},
		},
		{
			name:  "length is counted in characters not bytes",
			input: []string{"寿司", "麺屋一燈"},
			want:  []string{"麺屋一燈"},
		},
		{
			name:  "whitespace-only becomes empty and is dropped",
			input: []string{"   ", "\t\n", "Oakland CA"},
			want:  []string{"Oakland CA"},
		},
		{
			name:  "duplicates after normalization collapse",
			input: []string{"Blue Bottle", "Blue   Bottle"},
			want:  []string{"Blue Bottle"},
		},
		{
			name:  "empty input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanTexts(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("CleanTexts(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestBatchRecognizeFiltersByConfidence(t *testing.T) {
	rec := &fakeRecognizer{
		detections: map[string][]TextDetection{
			"f1.jpg": {
				{Text: "Blue Bottle Coffee", Confidence: 0.95},
				{Text: "noise", Confidence: 0.4},
				{Text: "borderline", Confidence: 0.6},
			},
		},
	}

	result := BatchRecognize(context.Background(), rec, []string{"f1.jpg"}, DefaultBatchOptions())

	want := []string{"Blue Bottle Coffee"}
	if !reflect.DeepEqual(result.Texts, want) {
		t.Errorf("Texts = %v, want %v (confidence floor is exclusive)", result.Texts, want)
	}
	if result.FramesProcessed != 1 || result.FramesFailed != 0 {
		t.Errorf("Counts = %d processed / %d failed, want 1/0", result.FramesProcessed, result.FramesFailed)
	}
}

func TestBatchRecognizePartialFailure(t *testing.T) {
	frames := []string{"f1.jpg", "f2.jpg", "f3.jpg"}
	rec := &fakeRecognizer{
		detections: map[string][]TextDetection{
			"f1.jpg": {{Text: "Tartine Bakery", Confidence: 0.9}},
			"f3.jpg": {{Text: "San Francisco", Confidence: 0.8}},
		},
		failures: map[string]bool{"f2.jpg": true},
	}

	result := BatchRecognize(context.Background(), rec, frames, DefaultBatchOptions())

	want := []string{"Tartine Bakery", "San Francisco"}
	if !reflect.DeepEqual(result.Texts, want) {
		t.Errorf("Texts = %v, want %v", result.Texts, want)
	}
	if result.FramesProcessed != 2 {
		t.Errorf("FramesProcessed = %d, want 2", result.FramesProcessed)
	}
	if result.FramesFailed != 1 {
		t.Errorf("FramesFailed = %d, want 1", result.FramesFailed)
	}
}

func TestBatchRecognizeVisitsAllFramesAcrossBatches(t *testing.T) {
	var frames []string
	for i := 0; i < 12; i++ {
		frames = append(frames, fmt.Sprintf("frame_%04d.jpg", i))
	}
	rec := &fakeRecognizer{detections: map[string][]TextDetection{}}

	result := BatchRecognize(context.Background(), rec, frames, BatchOptions{BatchSize: 5, MinConfidence: 0.6})

	if len(rec.calls) != len(frames) {
		t.Errorf("Recognizer called %d times, want %d", len(rec.calls), len(frames))
	}
	if result.FramesProcessed != len(frames) {
		t.Errorf("FramesProcessed = %d, want %d", result.FramesProcessed, len(frames))
	}
}

func TestParseDetections(t *testing.T) {
	t.Run("plain JSON array", func(t *testing.T) {
		got, err := parseDetections(`[{"text": "Blue Bottle", "confidence": 0.92}]`)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Text != "Blue Bottle" || got[0].Confidence != 0.92 {
			t.Errorf("Unexpected detections: %+v", got)
		}
	})

	t.Run("fenced JSON", func(t *testing.T) {
		got, err := parseDetections("```json\n[{\"text\": \"Tartine\", \"confidence\": 0.8}]\n```")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Text != "Tartine" {
			t.Errorf("Unexpected detections: %+v", got)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		got, err := parseDetections("")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected no detections, got %+v", got)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if _, err := parseDetections("not json"); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})
}
