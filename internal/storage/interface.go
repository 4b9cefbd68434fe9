package storage

import (
	"context"
	"io"
)

// ObjectStorage is the contract the video archiver stores against. Keys are
// reel-scoped paths; objects are the processed source videos.
type ObjectStorage interface {
	// Upload stores an object under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves an archived object.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the public URL for an archived object.
	GetURL(key string) string

	// Delete removes an archived object.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key holds an object.
	Exists(ctx context.Context, key string) (bool, error)
}
