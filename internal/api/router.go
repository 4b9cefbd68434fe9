package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/reelscout/internal/api/handler"
	"github.com/timmy/reelscout/internal/api/middleware"
	"github.com/timmy/reelscout/internal/logger"
)

// Handlers bundles the route handlers wired by the composition root.
type Handlers struct {
	Reel  *handler.ReelHandler
	Place *handler.PlaceHandler
	Job   *handler.JobHandler
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(h Handlers, log *logger.Logger, mode string, cors middleware.CORSConfig) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cors))

	healthHandler := handler.NewHealthHandler()

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Reel submission and status
		v1.POST("/reels", h.Reel.Upload)
		v1.POST("/reels/url", h.Reel.SubmitURL)
		v1.GET("/reels", h.Reel.List)
		v1.GET("/reels/:id", h.Reel.Get)

		// Place directory
		v1.GET("/places", h.Place.List)
		v1.GET("/places/:id", h.Place.Get)
		v1.GET("/places/:id/details", h.Place.Details)

		// Manual review queue
		v1.GET("/extractions/review", h.Place.Review)

		// Queue introspection
		v1.GET("/jobs/:id", h.Job.Get)
		v1.GET("/queue/stats", h.Job.Stats)
	}

	return r
}
