package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/timmy/reelscout/internal/logger"
)

// Downloader acquires a video from a source URL using yt-dlp and enforces
// the duration and size ceilings. The duration ceiling is re-checked here
// because for URL ingestion it is only knowable after the file exists.
type Downloader struct {
	bin         string
	prober      Prober
	maxDuration time.Duration
	maxBytes    int64
}

// NewDownloader creates a Downloader.
// Parameters:
//   - bin: yt-dlp binary name or path.
//   - prober: duration prober for the post-download check.
//   - maxDuration: hard duration ceiling; longer videos are rejected and deleted.
//   - maxBytes: size ceiling passed to the downloader.
// Returns:
//   - *Downloader: configured downloader.
func NewDownloader(bin string, prober Prober, maxDuration time.Duration, maxBytes int64) *Downloader {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Downloader{
		bin:         bin,
		prober:      prober,
		maxDuration: maxDuration,
		maxBytes:    maxBytes,
	}
}

// Download fetches the video at url into outputDir and returns the local
// file path. A video over the duration ceiling is deleted and rejected with
// a DurationExceededError; any fetch failure is a DownloadError.
func (d *Downloader) Download(ctx context.Context, url, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}

	prefix := fmt.Sprintf("video_%d", time.Now().UnixMilli())
	outputTemplate := filepath.Join(outputDir, prefix+".%(ext)s")

	args := []string{
		"--format", "best[height<=720][ext=mp4]/best[height<=720]/best",
		"--output", outputTemplate,
		"--no-playlist",
		"--no-warnings",
		"--prefer-free-formats",
		"--max-filesize", fmt.Sprintf("%d", d.maxBytes),
		"--add-header", "referer:https://www.instagram.com/",
		url,
	}

	cmd := exec.CommandContext(ctx, d.bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", &DownloadError{URL: url, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))}
	}

	videoPath, err := findDownloaded(outputDir, prefix)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}

	// Post-download duration check; only knowable now that the file exists.
	duration, err := d.prober.Duration(ctx, videoPath)
	if err != nil {
		// Missing duration probe is locally recovered, not a rejection.
		logger.CtxWarn(ctx, "Failed to probe downloaded video duration: %v", err)
		return videoPath, nil
	}
	if duration > d.maxDuration {
		if rmErr := os.Remove(videoPath); rmErr != nil {
			logger.CtxWarn(ctx, "Failed to delete over-length video %s: %v", videoPath, rmErr)
		}
		return "", &DurationExceededError{Duration: duration, Limit: d.maxDuration}
	}

	return videoPath, nil
}

// findDownloaded locates the file yt-dlp wrote for the given name prefix.
func findDownloaded(dir, prefix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("downloaded file not found for prefix %s", prefix)
}
