package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Prober reports the duration of a media file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFProbe implements Prober using the ffprobe binary.
type FFProbe struct {
	bin string
}

// NewFFProbe creates an FFProbe wrapper around the given binary.
func NewFFProbe(bin string) *FFProbe {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFProbe{bin: bin}
}

// ffprobeOutput holds the format section of ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the container duration of the file at path.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - path: local media file path.
// Returns:
//   - time.Duration: probed duration.
//   - error: non-nil if ffprobe fails or reports no duration.
func (p *FFProbe) Duration(ctx context.Context, path string) (time.Duration, error) {
	// ffprobe -v quiet -print_format json -show_format <input>
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, stderr.String())
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probed); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if probed.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", path)
	}

	seconds, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probed.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
