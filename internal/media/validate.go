package media

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/timmy/reelscout/internal/logger"
)

// URL patterns for supported short-form video platforms.
var (
	instagramReelPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?instagram\.com/(?:reel|reels)/([A-Za-z0-9_-]+)`)
	youtubeShortsPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/shorts/|youtu\.be/)([A-Za-z0-9_-]+)`)
)

// SupportedURL reports whether url points at a supported platform.
func SupportedURL(url string) bool {
	return instagramReelPattern.MatchString(url) || youtubeShortsPattern.MatchString(url)
}

// UploadPolicy captures the submission-time validation limits.
type UploadPolicy struct {
	MaxDuration      time.Duration
	MaxBytes         int64
	SupportedFormats []string
}

// ValidateUpload checks a directly uploaded video against the policy:
// supported extension, size ceiling, and the optimistic duration check
// (duration is known immediately for uploads; it is re-checked post-download
// for URL ingestion). A failed duration probe is logged and tolerated.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prober: duration prober.
//   - path: uploaded file path.
//   - policy: validation limits.
// Returns:
//   - error: non-nil on rejection; the file is left in place for the caller.
func ValidateUpload(ctx context.Context, prober Prober, path string, policy UploadPolicy) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	supported := false
	for _, f := range policy.SupportedFormats {
		if ext == f {
			supported = true
			break
		}
	}
	if !supported {
		return &UnsupportedFormatError{Ext: ext}
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if policy.MaxBytes > 0 && info.Size() > policy.MaxBytes {
		return &FileTooLargeError{Size: info.Size(), Limit: policy.MaxBytes}
	}

	duration, err := prober.Duration(ctx, path)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to probe uploaded video duration: %v", err)
		return nil
	}
	if policy.MaxDuration > 0 && duration > policy.MaxDuration {
		return &DurationExceededError{Duration: duration, Limit: policy.MaxDuration}
	}
	return nil
}
