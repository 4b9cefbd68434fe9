package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/logger"
	"github.com/timmy/reelscout/internal/repository"
	"github.com/timmy/reelscout/internal/resolve"
	"github.com/timmy/reelscout/internal/vision"
)

// Processing checkpoints reported after each stage. Every attempt walks the
// full sequence from zero; there is no mid-pipeline resume.
const (
	checkpointAcquired    = 10
	checkpointAudio       = 15
	checkpointTranscribed = 35
	checkpointFrames      = 45
	checkpointOCR         = 65
	checkpointEntities    = 80
	checkpointResolved    = 90
	checkpointDone        = 100
)

// VideoAcquirer fetches a source URL into a local file.
type VideoAcquirer interface {
	Download(ctx context.Context, url, outputDir string) (string, error)
}

// AudioExtractor produces an audio file from a video.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string) (string, error)
}

// FrameSampler produces ordered frame images from a video.
type FrameSampler interface {
	Extract(ctx context.Context, videoPath string, fps int) ([]string, error)
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// EntityExtractor pulls venue entities out of the combined text.
type EntityExtractor interface {
	Extract(ctx context.Context, transcript string, frameTexts []string) (*domain.VenueEntities, error)
}

// PlaceResolver matches entities against the place directory.
type PlaceResolver interface {
	Resolve(ctx context.Context, entities *domain.VenueEntities) (*resolve.Resolution, error)
}

// VideoArchiver stores the processed source video. Optional and best effort.
type VideoArchiver interface {
	ArchiveVideo(ctx context.Context, reelID, videoPath string) (string, error)
}

// Options carries per-deployment pipeline settings.
type Options struct {
	// UploadDir is where URL-sourced videos are downloaded.
	UploadDir string
	// FrameFPS is the frame sampling rate.
	FrameFPS int
	// OCR controls batch recognition.
	OCR vision.BatchOptions
}

// Pipeline executes the full reel processing sequence: acquire, extract
// audio and frames, transcribe, recognize on-screen text, extract entities,
// resolve the venue, persist the results. It implements the queue handler
// contract.
type Pipeline struct {
	reels      *repository.ReelRepository
	placeRepo  *repository.PlaceRepository
	extracted  *repository.ExtractedPlaceRepository
	acquirer   VideoAcquirer
	audio      AudioExtractor
	frames     FrameSampler
	transcribe Transcriber
	recognizer vision.Recognizer
	entities   EntityExtractor
	resolver   PlaceResolver
	archiver   VideoArchiver
	opts       Options
}

// New creates a Pipeline.
// Parameters:
//   - reels, places, extracted: persistence for reels, canonical places and
//     resolution audit records.
//   - acquirer, audio, frames: media collaborators.
//   - transcribe, recognizer, entities, resolver: analysis collaborators.
//   - archiver: optional video archiver; nil disables archival.
//   - opts: deployment settings.
//
// Returns:
//   - *Pipeline: configured pipeline.
func New(
	reels *repository.ReelRepository,
	places *repository.PlaceRepository,
	extracted *repository.ExtractedPlaceRepository,
	acquirer VideoAcquirer,
	audio AudioExtractor,
	frames FrameSampler,
	transcribe Transcriber,
	recognizer vision.Recognizer,
	entities EntityExtractor,
	resolver PlaceResolver,
	archiver VideoArchiver,
	opts Options,
) *Pipeline {
	if opts.FrameFPS < 1 {
		opts.FrameFPS = 1
	}
	return &Pipeline{
		reels:      reels,
		placeRepo:  places,
		extracted:  extracted,
		acquirer:   acquirer,
		audio:      audio,
		frames:     frames,
		transcribe: transcribe,
		recognizer: recognizer,
		entities:   entities,
		resolver:   resolver,
		archiver:   archiver,
		opts:       opts,
	}
}

// Handle processes one reel job attempt from the beginning. On failure the
// reel is marked failed with the stage error; temporary artifacts are
// cleaned up best-effort either way.
func (p *Pipeline) Handle(ctx context.Context, job *domain.Job, progress func(int)) error {
	reelID := job.Payload.ReelID
	ctx = logger.SetReelID(ctx, reelID)

	reel, err := p.reels.GetByID(ctx, reelID)
	if err != nil {
		return fmt.Errorf("failed to load reel %s: %w", reelID, err)
	}

	if err := p.reels.UpdateProgress(ctx, reelID, 0, domain.ReelStatusProcessing); err != nil {
		return fmt.Errorf("failed to start reel processing: %w", err)
	}
	progress(0)

	var cleanup []string
	defer p.removeAll(ctx, &cleanup)

	if err := p.run(ctx, reel, job.Payload, progress, &cleanup); err != nil {
		if markErr := p.reels.MarkFailed(ctx, reelID, err.Error()); markErr != nil {
			logger.CtxError(ctx, "Failed to mark reel failed: %v", markErr)
		}
		return err
	}
	return nil
}

// run walks the stage sequence, reporting a checkpoint after each stage and
// persisting intermediate results on the reel as they become available.
func (p *Pipeline) run(ctx context.Context, reel *domain.Reel, payload domain.JobPayload, progress func(int), cleanup *[]string) error {
	// Acquire: direct uploads already have a local file; URL submissions
	// are downloaded now, with the duration ceiling re-checked on the
	// actual file.
	videoPath := payload.VideoPath
	if videoPath == "" {
		downloaded, err := p.acquirer.Download(logger.SetStage(ctx, StageAcquire), payload.SourceURL, p.opts.UploadDir)
		if err != nil {
			return &StageError{Stage: StageAcquire, Err: err}
		}
		videoPath = downloaded
		*cleanup = append(*cleanup, videoPath)

		reel.VideoPath = videoPath
		if err := p.reels.Update(ctx, reel); err != nil {
			return &StageError{Stage: StageAcquire, Err: err}
		}
	}
	p.checkpoint(ctx, reel.ID, checkpointAcquired, progress)

	audioPath, err := p.audio.Extract(logger.SetStage(ctx, StageAudio), videoPath)
	if err != nil {
		return &StageError{Stage: StageAudio, Err: err}
	}
	*cleanup = append(*cleanup, audioPath)
	p.checkpoint(ctx, reel.ID, checkpointAudio, progress)

	transcript, err := p.transcribe.Transcribe(logger.SetStage(ctx, StageTranscribe), audioPath)
	if err != nil {
		return &StageError{Stage: StageTranscribe, Err: err}
	}
	reel.Transcript = transcript
	if err := p.reels.Update(ctx, reel); err != nil {
		return &StageError{Stage: StageTranscribe, Err: err}
	}
	p.checkpoint(ctx, reel.ID, checkpointTranscribed, progress)

	framePaths, err := p.frames.Extract(logger.SetStage(ctx, StageFrames), videoPath, p.opts.FrameFPS)
	if err != nil {
		return &StageError{Stage: StageFrames, Err: err}
	}
	if len(framePaths) > 0 {
		*cleanup = append(*cleanup, filepath.Dir(framePaths[0]))
	}
	p.checkpoint(ctx, reel.ID, checkpointFrames, progress)

	ocr := vision.BatchRecognize(logger.SetStage(ctx, StageOCR), p.recognizer, framePaths, p.opts.OCR)
	texts := vision.CleanTexts(ocr.Texts)
	logger.CtxInfo(ctx, "Recognized %d texts from %d frames (%d failed)",
		len(texts), ocr.FramesProcessed, ocr.FramesFailed)

	reel.RecognizedTexts = texts
	if err := p.reels.Update(ctx, reel); err != nil {
		return &StageError{Stage: StageOCR, Err: err}
	}
	p.checkpoint(ctx, reel.ID, checkpointOCR, progress)

	entities, err := p.entities.Extract(logger.SetStage(ctx, StageEntities), transcript, texts)
	if err != nil {
		return &StageError{Stage: StageEntities, Err: err}
	}
	reel.RawEntities = entities
	if err := p.reels.Update(ctx, reel); err != nil {
		return &StageError{Stage: StageEntities, Err: err}
	}
	p.checkpoint(ctx, reel.ID, checkpointEntities, progress)

	resolution, err := p.resolver.Resolve(logger.SetStage(ctx, StageResolve), entities)
	if err != nil {
		return &StageError{Stage: StageResolve, Err: err}
	}
	p.checkpoint(ctx, reel.ID, checkpointResolved, progress)

	if err := p.persist(logger.SetStage(ctx, StagePersist), reel, entities, resolution, videoPath); err != nil {
		return &StageError{Stage: StagePersist, Err: err}
	}
	if err := p.reels.MarkCompleted(ctx, reel.ID); err != nil {
		return &StageError{Stage: StagePersist, Err: err}
	}
	progress(checkpointDone)

	logger.CtxInfo(ctx, "Reel processed: confidence %.2f, review=%t", resolution.Confidence, resolution.NeedsReview())
	return nil
}

// persist writes the resolution outcome: always one immutable audit record,
// plus the canonical place when the match was accepted, plus best-effort
// archival of the source video.
func (p *Pipeline) persist(ctx context.Context, reel *domain.Reel, entities *domain.VenueEntities, resolution *resolve.Resolution, videoPath string) error {
	audit := &domain.ExtractedPlace{
		ID:          uuid.New().String(),
		ReelID:      reel.ID,
		RawName:     entities.Name,
		RawAddress:  entities.Address,
		Confidence:  resolution.Confidence,
		NeedsReview: resolution.NeedsReview(),
	}

	if resolution.Accepted() {
		match := resolution.Match
		photos := make([]string, 0, len(match.Photos))
		for _, ph := range match.Photos {
			photos = append(photos, ph.PhotoReference)
		}

		place := &domain.Place{
			ID:          uuid.New().String(),
			Name:        match.Name,
			Address:     match.FormattedAddress,
			Longitude:   match.Geometry.Location.Lng,
			Latitude:    match.Geometry.Location.Lat,
			ExternalID:  match.PlaceID,
			Rating:      match.Rating,
			Specialties: entities.Specialties,
			Category:    entities.Category,
			Photos:      photos,
			ExternalData: domain.JSONMap{
				"types":  match.Types,
				"reason": resolution.Reason,
			},
		}
		canonical, err := p.placeRepo.Upsert(ctx, place)
		if err != nil {
			return fmt.Errorf("failed to upsert place: %w", err)
		}
		audit.ResolvedPlaceID = canonical.ID
	}

	if err := p.extracted.Create(ctx, audit); err != nil {
		return fmt.Errorf("failed to record extraction: %w", err)
	}

	// Archival failures never fail the reel.
	if p.archiver != nil {
		if _, err := p.archiver.ArchiveVideo(ctx, reel.ID, videoPath); err != nil {
			logger.CtxWarn(ctx, "Failed to archive video: %v", err)
		}
	}
	return nil
}

// checkpoint persists and reports a progress checkpoint. Persistence
// failures are logged, not fatal; the stage outcome itself is already safe.
func (p *Pipeline) checkpoint(ctx context.Context, reelID string, pct int, progress func(int)) {
	if err := p.reels.UpdateProgress(ctx, reelID, pct, ""); err != nil {
		logger.CtxWarn(ctx, "Failed to persist reel progress %d: %v", pct, err)
	}
	progress(pct)
}

// removeAll deletes temporary artifacts, logging failures without escalating.
// The frames directory itself is removed once its files are gone.
func (p *Pipeline) removeAll(ctx context.Context, paths *[]string) {
	dirs := make(map[string]struct{})
	for _, path := range *paths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			dirs[path] = struct{}{}
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.CtxWarn(ctx, "Failed to remove temporary file %s: %v", path, err)
		}
	}
	for dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			logger.CtxWarn(ctx, "Failed to remove temporary directory %s: %v", dir, err)
		}
	}
}
