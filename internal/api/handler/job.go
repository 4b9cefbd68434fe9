package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/reelscout/internal/queue"
)

// JobHandler exposes queue introspection endpoints.
type JobHandler struct {
	queue *queue.Queue
}

// NewJobHandler creates a new job handler.
func NewJobHandler(q *queue.Queue) *JobHandler {
	return &JobHandler{queue: q}
}

// Get handles GET /api/v1/jobs/:id: queue state, attempts and progress of
// one processing job.
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.queue.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	resp := gin.H{
		"id":       job.ID,
		"type":     job.Type,
		"state":    job.State,
		"attempts": job.Attempts,
		"progress": job.Progress,
		"reel_id":  job.Payload.ReelID,
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	if job.NextRunAt != nil {
		resp["next_run_at"] = job.NextRunAt
	}
	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /api/v1/queue/stats: job counts per state.
func (h *JobHandler) Stats(c *gin.Context) {
	counts, err := h.queue.Counts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": counts})
}
