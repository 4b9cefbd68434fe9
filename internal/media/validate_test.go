package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeProber returns a fixed duration or error.
type fakeProber struct {
	duration time.Duration
	err      error
}

func (f *fakeProber) Duration(_ context.Context, _ string) (time.Duration, error) {
	return f.duration, f.err
}

func TestSupportedURL(t *testing.T) {
	testCases := []struct {
		name string
		url  string
		want bool
	}{
		{name: "instagram reel", url: "https://www.instagram.com/reel/Cx1yz_ab2cd/", want: true},
		{name: "instagram reels plural", url: "https://instagram.com/reels/Cx1yz_ab2cd", want: true},
		{name: "youtube shorts", url: "https://www.youtube.com/shorts/dQw4w9WgXcQ", want: true},
		{name: "youtube short link", url: "https://youtu.be/dQw4w9WgXcQ", want: true},
		{name: "no scheme", url: "instagram.com/reel/Cx1yz", want: true},
		{name: "instagram profile", url: "https://www.instagram.com/bluebottle/", want: false},
		{name: "tiktok", url: "https://www.tiktok.com/@user/video/123", want: false},
		{name: "empty", url: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SupportedURL(tc.url); got != tc.want {
				t.Errorf("SupportedURL(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestValidateUpload(t *testing.T) {
	dir := t.TempDir()
	policy := UploadPolicy{
		MaxDuration:      90 * time.Second,
		MaxBytes:         1024,
		SupportedFormats: []string{"mp4", "mov", "avi", "webm", "mkv"},
	}

	writeFile := func(t *testing.T, name string, size int) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
			t.Fatalf("Failed to write test file: %v", err)
		}
		return path
	}

	t.Run("accepts supported video within limits", func(t *testing.T) {
		path := writeFile(t, "clip.mp4", 100)
		err := ValidateUpload(context.Background(), &fakeProber{duration: 30 * time.Second}, path, policy)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("rejects unsupported extension", func(t *testing.T) {
		path := writeFile(t, "clip.gif", 100)
		err := ValidateUpload(context.Background(), &fakeProber{duration: 30 * time.Second}, path, policy)
		var formatErr *UnsupportedFormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("Expected UnsupportedFormatError, got %v", err)
		}
		if formatErr.Ext != "gif" {
			t.Errorf("Expected ext gif, got %s", formatErr.Ext)
		}
	})

	t.Run("extension check is case insensitive", func(t *testing.T) {
		path := writeFile(t, "clip.MP4", 100)
		err := ValidateUpload(context.Background(), &fakeProber{duration: 30 * time.Second}, path, policy)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		path := writeFile(t, "big.mp4", 2048)
		err := ValidateUpload(context.Background(), &fakeProber{duration: 30 * time.Second}, path, policy)
		var sizeErr *FileTooLargeError
		if !errors.As(err, &sizeErr) {
			t.Fatalf("Expected FileTooLargeError, got %v", err)
		}
		if sizeErr.Size != 2048 || sizeErr.Limit != 1024 {
			t.Errorf("Unexpected size error fields: size=%d limit=%d", sizeErr.Size, sizeErr.Limit)
		}
	})

	t.Run("rejects over-length video", func(t *testing.T) {
		path := writeFile(t, "long.mp4", 100)
		err := ValidateUpload(context.Background(), &fakeProber{duration: 2 * time.Minute}, path, policy)
		var durErr *DurationExceededError
		if !errors.As(err, &durErr) {
			t.Fatalf("Expected DurationExceededError, got %v", err)
		}
	})

	t.Run("accepts video at exactly the duration ceiling", func(t *testing.T) {
		path := writeFile(t, "edge.mp4", 100)
		err := ValidateUpload(context.Background(), &fakeProber{duration: 90 * time.Second}, path, policy)
		if err != nil {
			t.Errorf("Expected no error at exact ceiling, got %v", err)
		}
	})

	t.Run("tolerates probe failure", func(t *testing.T) {
		path := writeFile(t, "odd.mp4", 100)
		err := ValidateUpload(context.Background(), &fakeProber{err: errors.New("boom")}, path, policy)
		if err != nil {
			t.Errorf("Expected probe failure to be tolerated, got %v", err)
		}
	})
}

func TestDerivedPaths(t *testing.T) {
	if got := AudioPath("/tmp/uploads/video_123.mp4"); got != "/tmp/uploads/video_123.mp3" {
		t.Errorf("AudioPath = %s, want /tmp/uploads/video_123.mp3", got)
	}
	if got := FramesDir("/tmp/uploads/video_123.mp4"); got != "/tmp/uploads/video_123.mp4_frames" {
		t.Errorf("FramesDir = %s, want /tmp/uploads/video_123.mp4_frames", got)
	}
}
