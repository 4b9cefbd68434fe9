package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// AudioExtractor extracts the audio track of a video into a mono mp3 using
// ffmpeg. Output naming is derived deterministically from the input path.
type AudioExtractor struct {
	bin string
}

// NewAudioExtractor creates an AudioExtractor around the given ffmpeg binary.
func NewAudioExtractor(bin string) *AudioExtractor {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &AudioExtractor{bin: bin}
}

// AudioPath returns the deterministic audio output path for a video path.
func AudioPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".mp3"
}

// Extract writes the audio track of videoPath to AudioPath(videoPath).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoPath: local video file path.
// Returns:
//   - string: path of the extracted audio file.
//   - error: non-nil if ffmpeg fails.
func (a *AudioExtractor) Extract(ctx context.Context, videoPath string) (string, error) {
	audioPath := AudioPath(videoPath)

	// ffmpeg -y -i <video> -vn -acodec libmp3lame -ac 1 <audio>
	cmd := exec.CommandContext(ctx, a.bin,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ac", "1",
		audioPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg audio extraction failed: %w (stderr: %s)", err, stderr.String())
	}
	return audioPath, nil
}
