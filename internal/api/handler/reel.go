package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/logger"
	"github.com/timmy/reelscout/internal/media"
	"github.com/timmy/reelscout/internal/queue"
	"github.com/timmy/reelscout/internal/repository"
)

// ReelHandler handles reel submission and status endpoints.
type ReelHandler struct {
	reels     *repository.ReelRepository
	extracted *repository.ExtractedPlaceRepository
	queue     *queue.Queue
	prober    media.Prober
	policy    media.UploadPolicy
	uploadDir string
}

// NewReelHandler creates a new reel handler.
// Parameters:
//   - reels: reel repository.
//   - extracted: resolution audit repository.
//   - q: job queue for submissions.
//   - prober: media duration prober for upload validation.
//   - policy: upload validation limits.
//   - uploadDir: directory where uploaded videos are stored.
// Returns:
//   - *ReelHandler: initialized handler.
func NewReelHandler(
	reels *repository.ReelRepository,
	extracted *repository.ExtractedPlaceRepository,
	q *queue.Queue,
	prober media.Prober,
	policy media.UploadPolicy,
	uploadDir string,
) *ReelHandler {
	return &ReelHandler{
		reels:     reels,
		extracted: extracted,
		queue:     q,
		prober:    prober,
		policy:    policy,
		uploadDir: uploadDir,
	}
}

// Upload handles POST /api/v1/reels: a direct multipart video upload.
// The video is validated against the format, size and duration limits before
// a processing job is enqueued.
func (h *ReelHandler) Upload(c *gin.Context) {
	userID := c.PostForm("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video file is required"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload directory"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	videoPath := filepath.Join(h.uploadDir, fmt.Sprintf("upload_%s%s", uuid.New().String(), ext))
	if err := c.SaveUploadedFile(file, videoPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	if err := media.ValidateUpload(c.Request.Context(), h.prober, videoPath, h.policy); err != nil {
		// Rejected uploads are removed immediately.
		if rmErr := os.Remove(videoPath); rmErr != nil {
			logger.CtxWarn(c.Request.Context(), "Failed to remove rejected upload %s: %v", videoPath, rmErr)
		}
		h.rejectUpload(c, err)
		return
	}

	h.enqueue(c, userID, videoPath, "")
}

type submitURLRequest struct {
	URL    string `json:"url" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
}

// SubmitURL handles POST /api/v1/reels/url: submission by platform URL.
// Only Instagram reel and YouTube shorts URLs are accepted; the duration and
// size ceilings are enforced after download by the worker.
func (h *ReelHandler) SubmitURL(c *gin.Context) {
	var req submitURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and user_id are required"})
		return
	}

	if !media.SupportedURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unsupported URL: expected an Instagram reel or YouTube shorts link",
		})
		return
	}

	h.enqueue(c, req.UserID, "", req.URL)
}

// enqueue creates the reel record and its processing job.
func (h *ReelHandler) enqueue(c *gin.Context, userID, videoPath, sourceURL string) {
	ctx := c.Request.Context()

	reel := &domain.Reel{
		ID:        uuid.New().String(),
		UserID:    userID,
		SourceURL: sourceURL,
		VideoPath: videoPath,
		Status:    domain.ReelStatusPending,
	}
	if err := h.reels.Create(ctx, reel); err != nil {
		logger.CtxError(ctx, "Failed to create reel: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reel"})
		return
	}

	job, err := h.queue.Submit(ctx, domain.JobPayload{
		ReelID:    reel.ID,
		VideoPath: videoPath,
		SourceURL: sourceURL,
		UserID:    userID,
	})
	if err != nil {
		var vErr *queue.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		logger.CtxError(ctx, "Failed to enqueue job: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue processing job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"reel_id": reel.ID,
		"job_id":  job.ID,
		"status":  reel.Status,
	})
}

// rejectUpload maps validation failures to client errors.
func (h *ReelHandler) rejectUpload(c *gin.Context, err error) {
	var formatErr *media.UnsupportedFormatError
	var sizeErr *media.FileTooLargeError

	switch {
	case errors.As(err, &formatErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": formatErr.Error()})
	case errors.As(err, &sizeErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": sizeErr.Error()})
	case media.IsDurationExceeded(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate upload"})
	}
}

// Get handles GET /api/v1/reels/:id: processing status and, once completed,
// the extraction results.
func (h *ReelHandler) Get(c *gin.Context) {
	id := c.Param("id")

	reel, err := h.reels.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "reel not found"})
		return
	}

	resp := gin.H{
		"id":         reel.ID,
		"user_id":    reel.UserID,
		"status":     reel.Status,
		"progress":   reel.Progress,
		"source_url": reel.SourceURL,
		"created_at": reel.CreatedAt,
		"updated_at": reel.UpdatedAt,
	}
	if reel.Status == domain.ReelStatusFailed {
		resp["error"] = reel.Error
	}
	if reel.Status == domain.ReelStatusCompleted {
		resp["extracted_data"] = gin.H{
			"transcript":       reel.Transcript,
			"recognized_texts": reel.RecognizedTexts,
			"entities":         reel.RawEntities,
		}
		extractions, err := h.extracted.ListByReel(c.Request.Context(), reel.ID)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Failed to list extractions for reel %s: %v", reel.ID, err)
		} else {
			resp["extracted_places"] = extractions
		}
	}

	c.JSON(http.StatusOK, resp)
}

// List handles GET /api/v1/reels?user_id=...: a user's reels, newest first.
func (h *ReelHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	reels, err := h.reels.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reels"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reels": reels,
		"count": len(reels),
	})
}
