package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/reelscout/internal/domain"
	"github.com/timmy/reelscout/internal/places"
	"github.com/timmy/reelscout/internal/repository"
)

// PlaceDetailer fetches the external details record for a resolved place.
type PlaceDetailer interface {
	Details(ctx context.Context, placeID string) (*places.Details, error)
}

// PlaceHandler handles the canonical place directory endpoints.
type PlaceHandler struct {
	placeRepo *repository.PlaceRepository
	extracted *repository.ExtractedPlaceRepository
	detailer  PlaceDetailer
}

// NewPlaceHandler creates a new place handler.
// Parameters:
//   - placeRepo: canonical place repository.
//   - extracted: resolution audit repository.
//   - detailer: external place details client; nil disables the details endpoint.
// Returns:
//   - *PlaceHandler: initialized handler.
func NewPlaceHandler(
	placeRepo *repository.PlaceRepository,
	extracted *repository.ExtractedPlaceRepository,
	detailer PlaceDetailer,
) *PlaceHandler {
	return &PlaceHandler{
		placeRepo: placeRepo,
		extracted: extracted,
		detailer:  detailer,
	}
}

// List handles GET /api/v1/places with optional category filtering.
func (h *PlaceHandler) List(c *gin.Context) {
	category := domain.Category(c.Query("category"))
	if category != "" && !domain.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.placeRepo.List(c.Request.Context(), category, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list places"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"places": result,
		"count":  len(result),
	})
}

// Get handles GET /api/v1/places/:id.
func (h *PlaceHandler) Get(c *gin.Context) {
	place, err := h.placeRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
		return
	}
	c.JSON(http.StatusOK, place)
}

// Details handles GET /api/v1/places/:id/details: the live record from the
// external place directory, keyed by the stored external ID.
func (h *PlaceHandler) Details(c *gin.Context) {
	if h.detailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "place details are not configured"})
		return
	}

	place, err := h.placeRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
		return
	}

	details, err := h.detailer.Details(c.Request.Context(), place.ExternalID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch place details"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"place":   place,
		"details": details,
	})
}

// Review handles GET /api/v1/extractions/review: resolutions awaiting manual
// curation, newest first.
func (h *PlaceHandler) Review(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.extracted.ListNeedingReview(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list extractions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"extractions": records,
		"count":       len(records),
	})
}
