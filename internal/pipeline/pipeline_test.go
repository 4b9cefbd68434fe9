package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/places"
	"github.com/timmy/reelscout/internal/repository"
	"github.com/timmy/reelscout/internal/resolve"
	"github.com/timmy/reelscout/internal/vision"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testRepos struct {
	reels     *repository.ReelRepository
	places    *repository.PlaceRepository
	extracted *repository.ExtractedPlaceRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Reel{}, &domain.Place{}, &domain.ExtractedPlace{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return testRepos{
		reels:     repository.NewReelRepository(db),
		places:    repository.NewPlaceRepository(db),
		extracted: repository.NewExtractedPlaceRepository(db),
	}
}

// fakeAcquirer writes a placeholder video file into the output directory.
type fakeAcquirer struct {
	err   error
	calls int
}

func (f *fakeAcquirer) Download(_ context.Context, _, outputDir string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(outputDir, "video_test.mp4")
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// fakeAudio writes a sibling mp3 next to the video.
type fakeAudio struct {
	err  error
	path string
}

func (f *fakeAudio) Extract(_ context.Context, videoPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.path = videoPath + ".mp3"
	if err := os.WriteFile(f.path, []byte("audio"), 0644); err != nil {
		return "", err
	}
	return f.path, nil
}

// fakeFrames writes two frame files into a derived directory.
type fakeFrames struct {
	err error
	dir string
}

func (f *fakeFrames) Extract(_ context.Context, videoPath string, _ int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.dir = videoPath + "_frames"
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return nil, err
	}
	var paths []string
	for _, name := range []string{"frame_0001.jpg", "frame_0002.jpg"} {
		p := filepath.Join(f.dir, name)
		if err := os.WriteFile(p, []byte("jpg"), 0644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type fakeRecognizer struct {
	detections []vision.TextDetection
}

func (f *fakeRecognizer) RecognizeFrame(_ context.Context, _ string) ([]vision.TextDetection, error) {
	return f.detections, nil
}

type fakeEntities struct {
	entities *domain.VenueEntities
	err      error
}

func (f *fakeEntities) Extract(_ context.Context, _ string, _ []string) (*domain.VenueEntities, error) {
	return f.entities, f.err
}

type fakeResolver struct {
	resolution *resolve.Resolution
	err        error
}

func (f *fakeResolver) Resolve(_ context.Context, _ *domain.VenueEntities) (*resolve.Resolution, error) {
	return f.resolution, f.err
}

type fakeArchiver struct {
	keys []string
	err  error
}

func (f *fakeArchiver) ArchiveVideo(_ context.Context, reelID, videoPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "reels/" + reelID + "/" + filepath.Base(videoPath)
	f.keys = append(f.keys, key)
	return key, nil
}

type fixture struct {
	repos      testRepos
	acquirer   *fakeAcquirer
	audio      *fakeAudio
	frames     *fakeFrames
	transcribe *fakeTranscriber
	recognizer *fakeRecognizer
	entities   *fakeEntities
	resolver   *fakeResolver
	archiver   *fakeArchiver
	pipeline   *Pipeline
	reel       *domain.Reel
	job        *domain.Job
	reported   []int
}

func acceptedResolution() *resolve.Resolution {
	r := 4.6
	return &resolve.Resolution{
		Confidence: 0.92,
		Reason:     "Match found",
		Match: &places.Candidate{
			PlaceID:          "ext-1",
			Name:             "Blue Bottle Coffee",
			FormattedAddress: "300 Webster St, Oakland, CA",
			Geometry:         places.Geometry{Location: places.Location{Lat: 37.8, Lng: -122.27}},
			Rating:           &r,
			Photos:           []places.Photo{{PhotoReference: "ref-1"}},
			Types:            []string{"cafe"},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		repos:      newTestRepos(t),
		acquirer:   &fakeAcquirer{},
		audio:      &fakeAudio{},
		frames:     &fakeFrames{},
		transcribe: &fakeTranscriber{text: "best coffee in Oakland at Blue Bottle"},
		recognizer: &fakeRecognizer{detections: []vision.TextDetection{
			{Text: "Blue Bottle Coffee", Confidence: 0.9},
		}},
		entities: &fakeEntities{entities: &domain.VenueEntities{
			Name:        "Blue Bottle Coffee",
			Address:     "300 Webster St",
			City:        "Oakland",
			Specialties: []string{"pour over"},
			Category:    domain.CategoryCafe,
		}},
		resolver: &fakeResolver{resolution: acceptedResolution()},
		archiver: &fakeArchiver{},
	}

	fx.pipeline = New(
		fx.repos.reels, fx.repos.places, fx.repos.extracted,
		fx.acquirer, fx.audio, fx.frames,
		fx.transcribe, fx.recognizer, fx.entities, fx.resolver, fx.archiver,
		Options{UploadDir: t.TempDir(), FrameFPS: 1, OCR: vision.DefaultBatchOptions()},
	)

	fx.reel = &domain.Reel{
		ID:        uuid.New().String(),
		UserID:    "user-1",
		SourceURL: "https://www.instagram.com/reel/Cx1/",
		VideoPath: "",
		Status:    domain.ReelStatusPending,
	}
	if err := fx.repos.reels.Create(context.Background(), fx.reel); err != nil {
		t.Fatalf("Failed to create reel: %v", err)
	}

	fx.job = &domain.Job{
		ID:   uuid.New().String(),
		Type: domain.JobTypeProcessReel,
		Payload: domain.JobPayload{
			ReelID:    fx.reel.ID,
			SourceURL: fx.reel.SourceURL,
			UserID:    "user-1",
		},
		Attempts: 1,
	}
	return fx
}

func (fx *fixture) handle(t *testing.T) error {
	t.Helper()
	return fx.pipeline.Handle(context.Background(), fx.job, func(pct int) {
		fx.reported = append(fx.reported, pct)
	})
}

func TestHandleReportsCheckpointSequence(t *testing.T) {
	fx := newFixture(t)
	if err := fx.handle(t); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	want := []int{0, 10, 15, 35, 45, 65, 80, 90, 100}
	if !reflect.DeepEqual(fx.reported, want) {
		t.Errorf("Checkpoints = %v, want %v", fx.reported, want)
	}
}

func TestHandleSuccessPersistsEverything(t *testing.T) {
	fx := newFixture(t)
	if err := fx.handle(t); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	ctx := context.Background()

	reel, err := fx.repos.reels.GetByID(ctx, fx.reel.ID)
	if err != nil {
		t.Fatalf("Failed to reload reel: %v", err)
	}
	if reel.Status != domain.ReelStatusCompleted || reel.Progress != 100 {
		t.Errorf("Reel = %s/%d, want completed/100", reel.Status, reel.Progress)
	}
	if reel.Transcript == "" || len(reel.RecognizedTexts) == 0 || reel.RawEntities == nil {
		t.Errorf("Intermediate results missing: %+v", reel)
	}

	place, err := fx.repos.places.GetByExternalID(ctx, "ext-1")
	if err != nil {
		t.Fatalf("Accepted match should create a place: %v", err)
	}
	if place.Name != "Blue Bottle Coffee" || place.Category != domain.CategoryCafe {
		t.Errorf("Unexpected place: %+v", place)
	}

	audits, err := fx.repos.extracted.ListByReel(ctx, fx.reel.ID)
	if err != nil || len(audits) != 1 {
		t.Fatalf("Expected one audit record, got %d (err %v)", len(audits), err)
	}
	if audits[0].NeedsReview {
		t.Error("Accepted match must not need review")
	}
	if audits[0].ResolvedPlaceID != place.ID {
		t.Errorf("Audit should reference the canonical place: %q vs %q", audits[0].ResolvedPlaceID, place.ID)
	}

	if len(fx.archiver.keys) != 1 {
		t.Errorf("Expected one archived video, got %v", fx.archiver.keys)
	}
}

func TestHandleLowConfidenceSkipsPlace(t *testing.T) {
	fx := newFixture(t)
	fx.resolver.resolution = &resolve.Resolution{
		Confidence: 0.2,
		Reason:     "Low confidence match",
		Match:      &places.Candidate{PlaceID: "ext-2", Name: "Somewhere Else"},
	}

	if err := fx.handle(t); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	ctx := context.Background()

	if _, err := fx.repos.places.GetByExternalID(ctx, "ext-2"); err == nil {
		t.Error("Low-confidence match must not create a place")
	}

	audits, err := fx.repos.extracted.ListByReel(ctx, fx.reel.ID)
	if err != nil || len(audits) != 1 {
		t.Fatalf("Expected one audit record, got %d (err %v)", len(audits), err)
	}
	if !audits[0].NeedsReview {
		t.Error("Low-confidence extraction must need review")
	}
	if audits[0].ResolvedPlaceID != "" {
		t.Errorf("No place should be referenced, got %q", audits[0].ResolvedPlaceID)
	}

	reel, err := fx.repos.reels.GetByID(ctx, fx.reel.ID)
	if err != nil {
		t.Fatalf("Failed to reload reel: %v", err)
	}
	if reel.Status != domain.ReelStatusCompleted {
		t.Errorf("Low confidence still completes the reel, got %s", reel.Status)
	}
}

func TestHandleStageFailureMarksReelFailed(t *testing.T) {
	fx := newFixture(t)
	fx.transcribe.err = errors.New("whisper unavailable")

	err := fx.handle(t)
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Expected StageError, got %v", err)
	}
	if stageErr.Stage != StageTranscribe {
		t.Errorf("Stage = %s, want %s", stageErr.Stage, StageTranscribe)
	}

	reel, loadErr := fx.repos.reels.GetByID(context.Background(), fx.reel.ID)
	if loadErr != nil {
		t.Fatalf("Failed to reload reel: %v", loadErr)
	}
	if reel.Status != domain.ReelStatusFailed {
		t.Errorf("Status = %s, want failed", reel.Status)
	}
	if reel.Error == "" {
		t.Error("Failed reel should carry the stage error")
	}
}

func TestHandleCleansTemporaryArtifacts(t *testing.T) {
	t.Run("on success", func(t *testing.T) {
		fx := newFixture(t)
		if err := fx.handle(t); err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		assertGone(t, fx.audio.path, "audio file")
		assertGone(t, fx.frames.dir, "frames directory")
	})

	t.Run("on failure after extraction", func(t *testing.T) {
		fx := newFixture(t)
		fx.entities.err = errors.New("model overloaded")
		if err := fx.handle(t); err == nil {
			t.Fatal("Expected failure")
		}
		assertGone(t, fx.audio.path, "audio file")
		assertGone(t, fx.frames.dir, "frames directory")
	})
}

func assertGone(t *testing.T, path, what string) {
	t.Helper()
	if path == "" {
		t.Fatalf("Fixture never created the %s", what)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected %s %s to be cleaned up", what, path)
	}
}

func TestHandleUploadedVideoSkipsDownload(t *testing.T) {
	fx := newFixture(t)

	videoPath := filepath.Join(t.TempDir(), "upload.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0644); err != nil {
		t.Fatalf("Failed to write upload: %v", err)
	}
	fx.job.Payload.VideoPath = videoPath
	fx.job.Payload.SourceURL = ""

	if err := fx.handle(t); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if fx.acquirer.calls != 0 {
		t.Errorf("Download called %d times for a direct upload, want 0", fx.acquirer.calls)
	}
	// Uploaded source video is the caller's file and must survive.
	if _, err := os.Stat(videoPath); err != nil {
		t.Errorf("Uploaded video should not be deleted: %v", err)
	}
}

func TestHandleDownloadFailure(t *testing.T) {
	fx := newFixture(t)
	fx.acquirer.err = errors.New("yt-dlp exited 1")

	err := fx.handle(t)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageAcquire {
		t.Fatalf("Expected acquire StageError, got %v", err)
	}

	// No checkpoint beyond the start should have been reported.
	for _, pct := range fx.reported {
		if pct > 0 {
			t.Errorf("Unexpected checkpoint %d after download failure", pct)
		}
	}
}

func TestHandleArchiverFailureIsNotFatal(t *testing.T) {
	fx := newFixture(t)
	fx.archiver.err = errors.New("bucket unavailable")

	if err := fx.handle(t); err != nil {
		t.Fatalf("Archival failure must not fail the reel: %v", err)
	}
	reel, err := fx.repos.reels.GetByID(context.Background(), fx.reel.ID)
	if err != nil {
		t.Fatalf("Failed to reload reel: %v", err)
	}
	if reel.Status != domain.ReelStatusCompleted {
		t.Errorf("Status = %s, want completed", reel.Status)
	}
}
