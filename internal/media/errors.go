package media

import (
	"errors"
	"fmt"
	"time"
)

// DownloadError indicates the acquisition adapter failed to fetch the video.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download video from %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// DurationExceededError indicates a video is longer than the configured
// ceiling. The offending file is deleted before this error is returned.
type DurationExceededError struct {
	Duration time.Duration
	Limit    time.Duration
}

func (e *DurationExceededError) Error() string {
	return fmt.Sprintf("video duration %ds exceeds maximum allowed duration of %ds",
		int(e.Duration.Seconds()), int(e.Limit.Seconds()))
}

// UnsupportedFormatError indicates an upload with an extension outside the
// supported set.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported video format %q", e.Ext)
}

// FileTooLargeError indicates an upload over the size ceiling.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %d exceeds maximum allowed size of %d bytes", e.Size, e.Limit)
}

// IsDurationExceeded reports whether err is a duration-ceiling rejection.
func IsDurationExceeded(err error) bool {
	var de *DurationExceededError
	return errors.As(err, &de)
}

// IsDownloadFailure reports whether err is a download failure.
func IsDownloadFailure(err error) bool {
	var de *DownloadError
	return errors.As(err, &de)
}
