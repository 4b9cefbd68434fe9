package vision

import (
	"context"
	"sync"

	"github.com/timmy/reelscout/internal/logger"
)

// BatchOptions controls batch text recognition.
type BatchOptions struct {
	// BatchSize is the number of frames recognized concurrently per round.
	BatchSize int
	// MinConfidence is the exclusive confidence floor; detections at or
	// below it are discarded.
	MinConfidence float64
}

// DefaultBatchOptions returns the standard recognition settings.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{BatchSize: 5, MinConfidence: 0.6}
}

// BatchResult is the outcome of recognizing a set of frames. A frame that
// fails recognition is skipped rather than failing the whole batch, so the
// result can be partial.
type BatchResult struct {
	Texts           []string
	FramesProcessed int
	FramesFailed    int
}

// BatchRecognize runs the recognizer over frames in fixed-size rounds,
// keeping detections above the confidence floor. Frame order is preserved
// in the returned texts.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rec: frame recognizer.
//   - frames: ordered frame image paths.
//   - opts: batch size and confidence floor; zero values fall back to defaults.
// Returns:
//   - BatchResult: kept texts plus processed/failed frame counts.
func BatchRecognize(ctx context.Context, rec Recognizer, frames []string, opts BatchOptions) BatchResult {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchOptions().BatchSize
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultBatchOptions().MinConfidence
	}

	var result BatchResult
	frameTexts := make([][]string, len(frames))
	frameFailed := make([]bool, len(frames))

	for start := 0; start < len(frames); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(frames) {
			end = len(frames)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()

				detections, err := rec.RecognizeFrame(ctx, frames[idx])
				if err != nil {
					logger.CtxWarn(ctx, "Text recognition failed for frame %s: %v", frames[idx], err)
					frameFailed[idx] = true
					return
				}
				for _, d := range detections {
					if d.Confidence > opts.MinConfidence {
						frameTexts[idx] = append(frameTexts[idx], d.Text)
					}
				}
			}(i)
		}
		wg.Wait()
	}

	for i := range frames {
		if frameFailed[i] {
			result.FramesFailed++
			continue
		}
		result.FramesProcessed++
		result.Texts = append(result.Texts, frameTexts[i]...)
	}
	return result
}
