package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timmy/reelscout/internal/logger"
)

// Archiver stores processed source videos in object storage for later
// inspection. Archival is best effort: a reel whose video fails to upload is
// still fully processed.
type Archiver struct {
	store ObjectStorage
}

// NewArchiver creates an Archiver over the given object store.
func NewArchiver(store ObjectStorage) *Archiver {
	return &Archiver{store: store}
}

// ArchiveVideo uploads the reel's source video under a reel-scoped key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - reelID: owning reel identifier, used as the key prefix.
//   - videoPath: local video file path.
//
// Returns:
//   - string: object key of the archived video.
//   - error: non-nil if the file cannot be read or uploaded.
func (a *Archiver) ArchiveVideo(ctx context.Context, reelID, videoPath string) (string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video for archival: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat video for archival: %w", err)
	}

	key := fmt.Sprintf("reels/%s/%s", reelID, filepath.Base(videoPath))
	if err := a.store.Upload(ctx, key, f, info.Size(), videoContentType(videoPath)); err != nil {
		return "", err
	}

	logger.CtxInfo(ctx, "Archived video to %s", key)
	return key, nil
}

func videoContentType(path string) string {
	switch filepath.Ext(path) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}
