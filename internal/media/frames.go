package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// FrameExtractor samples video frames to JPEG files using ffmpeg. Frames
// land in a directory derived from the video path, so jobs never contend
// on temporary storage.
type FrameExtractor struct {
	bin string
}

// NewFrameExtractor creates a FrameExtractor around the given ffmpeg binary.
func NewFrameExtractor(bin string) *FrameExtractor {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FrameExtractor{bin: bin}
}

// FramesDir returns the deterministic frame output directory for a video path.
func FramesDir(videoPath string) string {
	return videoPath + "_frames"
}

// Extract samples frames at the given rate (frames per second) and returns
// the ordered frame paths.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoPath: local video file path.
//   - fps: sampling rate; values below 1 default to 1.
// Returns:
//   - []string: ordered frame image paths.
//   - error: non-nil if ffmpeg or directory setup fails.
func (f *FrameExtractor) Extract(ctx context.Context, videoPath string, fps int) ([]string, error) {
	if fps < 1 {
		fps = 1
	}

	framesDir := FramesDir(videoPath)
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	// ffmpeg -i <video> -vf fps=<n> -q:v 2 <dir>/frame_%04d.jpg
	cmd := exec.CommandContext(ctx, f.bin,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d", fps),
		"-q:v", "2",
		filepath.Join(framesDir, "frame_%04d.jpg"),
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %w (stderr: %s)", err, stderr.String())
	}

	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames directory: %w", err)
	}

	var framePaths []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jpg") {
			framePaths = append(framePaths, filepath.Join(framesDir, entry.Name()))
		}
	}
	sort.Strings(framePaths)
	return framePaths, nil
}
