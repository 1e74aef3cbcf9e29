package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"aivideo/models"
	"aivideo/services"
)

// VideoHandler serves the stateless proxy and auxiliary endpoints
type VideoHandler struct {
	orchestrator *services.Orchestrator
	catalog      *services.Catalog
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(orchestrator *services.Orchestrator, catalog *services.Catalog) *VideoHandler {
	return &VideoHandler{
		orchestrator: orchestrator,
		catalog:      catalog,
	}
}

// Generate handles POST /api/generate-video
func (h *VideoHandler) Generate(c *gin.Context) {
	var req models.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.GenerationResult{Success: false, Error: "Invalid request: " + err.Error()})
		return
	}

	res, err := h.orchestrator.Submit(c.Request.Context(), &req, nil)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, res)
			return
		}
		log.Printf("[Proxy] generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, res)
		return
	}

	log.Printf("[Proxy] generated %s", res.VideoID)
	c.JSON(http.StatusOK, res)
}

// Describe handles GET /api/generate-video
func (h *VideoHandler) Describe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "AI Video Generation API",
		"endpoint":    "/api/generate-video",
		"method":      "POST",
		"description": "Generate videos using AI models",
	})
}

// ListModels handles GET /api/models
func (h *VideoHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Available())
}

// ListVideos handles GET /api/videos. History lives with the client.
func (h *VideoHandler) ListVideos(c *gin.Context) {
	c.JSON(http.StatusOK, []models.GeneratedVideoRecord{})
}

// DeleteVideos handles DELETE /api/videos
func (h *VideoHandler) DeleteVideos(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Video deletion handled on client side",
	})
}

// GetVideo handles GET /api/videos/:id
func (h *VideoHandler) GetVideo(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Video ID is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Video %s details would be returned here", id),
	})
}

// DeleteVideo handles DELETE /api/videos/:id
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Video ID is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Video %s deletion handled", id),
	})
}
