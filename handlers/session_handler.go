package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"aivideo/models"
	"aivideo/services"
	"aivideo/store"
	"aivideo/utils"
)

// SessionHandler exposes the generation session, pending uploads, history
// and settings
type SessionHandler struct {
	session  *services.GenerationSession
	store    *store.Store
	media    *services.MediaService
	pending  *services.PendingMedia
	progress *services.ProgressTracker
	catalog  *services.Catalog
	client   *http.Client
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(deps Dependencies) *SessionHandler {
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &SessionHandler{
		session:  deps.Session,
		store:    deps.Store,
		media:    deps.Media,
		pending:  deps.Pending,
		progress: deps.Progress,
		catalog:  deps.Catalog,
		client:   client,
	}
}

// StartGeneration handles POST /api/session/generations
func (h *SessionHandler) StartGeneration(c *gin.Context) {
	var req services.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.session.Check(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Model != "" {
		if err := h.checkModel(req.Model); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	started := h.session.Start(req)
	c.JSON(http.StatusAccepted, gin.H{"started": started})
}

// CancelGeneration handles POST /api/session/generations/cancel
func (h *SessionHandler) CancelGeneration(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancelled": h.session.Cancel()})
}

// GetProgress handles GET /api/session/progress
func (h *SessionHandler) GetProgress(c *gin.Context) {
	state := h.progress.Current()
	resp := gin.H{
		"progress":     state,
		"isGenerating": h.session.Busy(),
	}
	if state.EstimatedTimeRemaining > 0 {
		resp["eta"] = utils.FormatETA(state.EstimatedTimeRemaining)
	}
	c.JSON(http.StatusOK, resp)
}

// UploadMedia handles POST /api/session/media (multipart field "files")
func (h *SessionHandler) UploadMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload: " + err.Error()})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	remaining := h.pending.Remaining()
	if len(headers) > remaining {
		headers = headers[:max(remaining, 0)]
	}

	files := make([]services.MediaFile, 0, len(headers))
	var openErrs []string
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			openErrs = append(openErrs, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		defer f.Close()
		files = append(files, mediaFileOf(fh, f))
	}

	descs, errs := h.media.IngestBatch(c.Request.Context(), remaining, files)
	added := h.pending.Add(descs...)

	messages := append([]string{}, openErrs...)
	for _, err := range errs {
		messages = append(messages, err.Error())
	}

	c.JSON(http.StatusOK, gin.H{
		"added":     descs[:added],
		"errors":    messages,
		"remaining": h.pending.Remaining(),
	})
}

func mediaFileOf(fh *multipart.FileHeader, r io.Reader) services.MediaFile {
	return services.MediaFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      r,
	}
}

// ListMedia handles GET /api/session/media
func (h *SessionHandler) ListMedia(c *gin.Context) {
	c.JSON(http.StatusOK, h.pending.List())
}

// RemoveMedia handles DELETE /api/session/media/:id
func (h *SessionHandler) RemoveMedia(c *gin.Context) {
	if !h.pending.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearMedia handles DELETE /api/session/media
func (h *SessionHandler) ClearMedia(c *gin.Context) {
	h.pending.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ExamplePrompts handles GET /api/session/examples
func (h *SessionHandler) ExamplePrompts(c *gin.Context) {
	c.JSON(http.StatusOK, services.ExamplePrompts(h.pending.List()))
}

// ListHistory handles GET /api/session/history
func (h *SessionHandler) ListHistory(c *gin.Context) {
	q := services.GalleryQuery{
		Search: c.Query("q"),
		Status: c.DefaultQuery("status", services.StatusAll),
		Sort:   c.DefaultQuery("sort", services.SortNewest),
	}
	if err := q.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, services.FilterVideos(h.store.State().Videos, q))
}

// HistoryStats handles GET /api/session/history/stats
func (h *SessionHandler) HistoryStats(c *gin.Context) {
	c.JSON(http.StatusOK, services.ComputeStats(h.store.State().Videos))
}

// GetHistoryItem handles GET /api/session/history/:id
func (h *SessionHandler) GetHistoryItem(c *gin.Context) {
	video, err := h.store.Video(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.JSON(http.StatusOK, video)
}

// DownloadHistoryItem handles GET /api/session/history/:id/download
func (h *SessionHandler) DownloadHistoryItem(c *gin.Context) {
	video, err := h.store.Video(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, video.VideoURL, nil)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Invalid video URL"})
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		log.Printf("[Download %s] fetch failed: %v", video.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Download failed"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Download %s] upstream returned %s", video.ID, resp.Status)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Download failed"})
		return
	}

	ext := "mp4"
	if video.Metadata != nil && video.Metadata.Format != "" {
		ext = video.Metadata.Format
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=ai-video-%s.%s", video.ID, ext),
	})
}

// DeleteHistoryItem handles DELETE /api/session/history/:id
func (h *SessionHandler) DeleteHistoryItem(c *gin.Context) {
	err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearHistory handles DELETE /api/session/history
func (h *SessionHandler) ClearHistory(c *gin.Context) {
	if err := h.store.Dispatch(c.Request.Context(), store.ClearVideos{}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSettings handles GET /api/session/settings
func (h *SessionHandler) GetSettings(c *gin.Context) {
	state := h.store.State()
	c.JSON(http.StatusOK, gin.H{
		"settings":      state.Settings,
		"selectedModel": state.SelectedModel,
	})
}

// UpdateSettings handles PUT /api/session/settings
func (h *SessionHandler) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if patch.VideoQuality != nil {
		switch *patch.VideoQuality {
		case models.QualityStandard, models.QualityHigh, models.QualityUltra:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown video quality %q", *patch.VideoQuality)})
			return
		}
	}
	if patch.DefaultModel != nil {
		if err := h.checkModel(*patch.DefaultModel); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.store.Dispatch(c.Request.Context(), store.UpdateSettings{Patch: patch}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.store.State().Settings)
}

// SelectModel handles PUT /api/session/model
func (h *SessionHandler) SelectModel(c *gin.Context) {
	var body struct {
		ModelID string `json:"modelId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := h.checkModel(body.ModelID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Dispatch(c.Request.Context(), store.SelectModel{ModelID: body.ModelID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selectedModel": body.ModelID})
}

func (h *SessionHandler) checkModel(id string) error {
	m, ok := h.catalog.Find(id)
	if !ok {
		return fmt.Errorf("unknown model %q", id)
	}
	if !m.IsAvailable {
		return fmt.Errorf("model %q is not available", id)
	}
	return nil
}
