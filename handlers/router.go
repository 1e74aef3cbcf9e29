package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"aivideo/services"
	"aivideo/store"
	"aivideo/utils"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Orchestrator *services.Orchestrator
	Session      *services.GenerationSession
	Store        *store.Store
	Media        *services.MediaService
	Pending      *services.PendingMedia
	Progress     *services.ProgressTracker
	Catalog      *services.Catalog
	Tokens       *utils.TokenPool
	HTTPClient   *http.Client // used for history downloads
}

// NewRouter builds the gin engine with every route registered
func NewRouter(allowOrigins []string, deps Dependencies) *gin.Engine {
	router := gin.Default()

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		resp := gin.H{
			"status": "healthy",
			"time":   time.Now(),
		}
		if deps.Tokens != nil {
			resp["upstreamTokens"] = deps.Tokens.Stats()
		}
		c.JSON(http.StatusOK, resp)
	})

	videoHandler := NewVideoHandler(deps.Orchestrator, deps.Catalog)
	sessionHandler := NewSessionHandler(deps)

	api := router.Group("/api")
	{
		api.POST("/generate-video", videoHandler.Generate)
		api.GET("/generate-video", videoHandler.Describe)
		api.GET("/models", videoHandler.ListModels)
		api.GET("/videos", videoHandler.ListVideos)
		api.DELETE("/videos", videoHandler.DeleteVideos)
		api.GET("/videos/:id", videoHandler.GetVideo)
		api.DELETE("/videos/:id", videoHandler.DeleteVideo)
	}

	session := api.Group("/session")
	{
		session.POST("/generations", sessionHandler.StartGeneration)
		session.POST("/generations/cancel", sessionHandler.CancelGeneration)
		session.GET("/progress", sessionHandler.GetProgress)
		session.GET("/progress/ws", sessionHandler.StreamProgress)

		session.POST("/media", sessionHandler.UploadMedia)
		session.GET("/media", sessionHandler.ListMedia)
		session.DELETE("/media", sessionHandler.ClearMedia)
		session.DELETE("/media/:id", sessionHandler.RemoveMedia)
		session.GET("/examples", sessionHandler.ExamplePrompts)

		session.GET("/history", sessionHandler.ListHistory)
		session.DELETE("/history", sessionHandler.ClearHistory)
		session.GET("/history/stats", sessionHandler.HistoryStats)
		session.GET("/history/:id", sessionHandler.GetHistoryItem)
		session.GET("/history/:id/download", sessionHandler.DownloadHistoryItem)
		session.DELETE("/history/:id", sessionHandler.DeleteHistoryItem)

		session.GET("/settings", sessionHandler.GetSettings)
		session.PUT("/settings", sessionHandler.UpdateSettings)
		session.PUT("/model", sessionHandler.SelectModel)
	}

	return router
}
