package services

import (
	"context"
	"errors"
	"log"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"aivideo/models"
	"aivideo/store"
)

// Session errors
var (
	ErrSessionBusy         = errors.New("a generation is already in progress")
	ErrGenerationCancelled = errors.New("Generation cancelled by user")
)

const sizeProbeTimeout = 5 * time.Second

// ResetDelays controls how long a terminal progress state stays visible
type ResetDelays struct {
	Success time.Duration
	Failure time.Duration
	Cancel  time.Duration
}

// SessionRequest is a generation started from the session. Empty fields
// fall back to session state: Model to the selected model, MediaInputs to
// the pending uploads.
type SessionRequest struct {
	Prompt      string                     `json:"prompt"`
	Model       string                     `json:"model,omitempty"`
	Settings    *models.GenerationSettings `json:"settings,omitempty"`
	MediaInputs []models.MediaDescriptor   `json:"mediaInputs,omitempty"`
}

// GenerationSession runs at most one generation at a time against the
// shared store, pending uploads and progress tracker
type GenerationSession struct {
	orch     *Orchestrator
	store    *store.Store
	pending  *PendingMedia
	progress *ProgressTracker
	delays   ResetDelays
	now      func() time.Time
	sizer    *http.Client

	mu      sync.Mutex
	running bool
	runID   uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SessionOption configures a GenerationSession
type SessionOption func(*GenerationSession)

// WithSizeProbe makes the session look up the size of each generated video
// with a HEAD request through client
func WithSizeProbe(client *http.Client) SessionOption {
	return func(s *GenerationSession) {
		s.sizer = client
	}
}

// NewGenerationSession creates a new session
func NewGenerationSession(orch *Orchestrator, st *store.Store, pending *PendingMedia, progress *ProgressTracker, delays ResetDelays, opts ...SessionOption) *GenerationSession {
	s := &GenerationSession{
		orch:     orch,
		store:    st,
		pending:  pending,
		progress: progress,
		delays:   delays,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Busy reports whether a generation is in flight
func (s *GenerationSession) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches a generation in the background. It returns false, doing
// nothing, when one is already in flight.
func (s *GenerationSession) Start(req SessionRequest) bool {
	ctx, runID, ok := s.begin(context.Background())
	if !ok {
		log.Printf("[Session] start ignored, generation already in progress")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _, _ = s.run(ctx, runID, req)
	}()
	return true
}

// Generate runs a generation and waits for it. The record is non-nil
// only when a video was added to history.
func (s *GenerationSession) Generate(ctx context.Context, req SessionRequest) (*models.GenerationResult, *models.GeneratedVideoRecord, error) {
	runCtx, runID, ok := s.begin(ctx)
	if !ok {
		return nil, nil, ErrSessionBusy
	}
	return s.run(runCtx, runID, req)
}

// Cancel aborts the in-flight generation. Its reply, if one still arrives,
// is discarded.
func (s *GenerationSession) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	s.running = false
	s.cancel()

	log.Printf("[Session] generation %d cancelled", s.runID)
	s.progress.Report(models.ProgressState{
		Status:   models.ProgressFailed,
		Progress: 0,
		Message:  ErrGenerationCancelled.Error(),
	})
	s.progress.ResetAfter(s.delays.Cancel)
	return true
}

// Wait blocks until background generations have returned
func (s *GenerationSession) Wait() {
	s.wg.Wait()
}

func (s *GenerationSession) begin(parent context.Context) (context.Context, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, 0, false
	}
	ctx, cancel := context.WithCancel(parent)
	s.running = true
	s.runID++
	s.cancel = cancel
	return ctx, s.runID, true
}

// activeLocked must be called with the lock held
func (s *GenerationSession) activeLocked(runID uint64) bool {
	return s.running && s.runID == runID
}

// commit ends run runID if it is still active and reports whether it was.
// The returned version identifies the run's last progress state.
func (s *GenerationSession) commit(runID uint64) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked(runID) {
		return 0, false
	}
	s.running = false
	s.cancel()
	return s.progress.Version(), true
}

// Check validates req as it would be submitted, after session defaults
// are applied
func (s *GenerationSession) Check(req SessionRequest) error {
	return Validate(s.resolve(req))
}

// resolve fills the request from session state
func (s *GenerationSession) resolve(req SessionRequest) *models.GenerationRequest {
	state := s.store.State()

	greq := &models.GenerationRequest{
		Prompt:       strings.TrimSpace(req.Prompt),
		Model:        req.Model,
		MediaInputs:  req.MediaInputs,
		Settings:     req.Settings,
		SystemPrompt: state.Settings.SystemPrompt,
	}
	if greq.Model == "" {
		greq.Model = state.SelectedModel
	}
	if len(greq.MediaInputs) == 0 {
		greq.MediaInputs = s.pending.List()
	}
	return greq
}

func (s *GenerationSession) run(ctx context.Context, runID uint64, req SessionRequest) (*models.GenerationResult, *models.GeneratedVideoRecord, error) {
	greq := s.resolve(req)

	// Reports from a cancelled or superseded run are dropped
	reporter := ProgressFunc(func(p models.ProgressState) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.activeLocked(runID) {
			s.progress.Report(p)
		}
	})

	res, err := s.orch.Submit(ctx, greq, reporter)

	version, ok := s.commit(runID)
	if !ok {
		log.Printf("[Session] discarding reply of cancelled generation %d", runID)
		return &models.GenerationResult{Success: false, Error: ErrGenerationCancelled.Error()}, nil, ErrGenerationCancelled
	}

	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			s.progress.ResetAfterVersion(version, s.delays.Failure)
		}
		return res, nil, err
	}

	// commit released ctx; the rest must outlive it
	ctx = context.WithoutCancel(ctx)
	record := newVideoRecord(greq, res, s.now())
	if s.sizer != nil && !res.Placeholder {
		record.Metadata.FileSize = s.probeSize(ctx, res.VideoURL)
	}
	if err := s.store.Dispatch(ctx, store.AddVideo{Video: record}); err != nil {
		// the record stays in memory; only persistence failed
		log.Printf("[Session] %v", err)
	}
	log.Printf("[Session] video %s added to history", record.ID)

	s.progress.ResetAfterVersion(version, s.delays.Success)
	return res, &record, nil
}

// probeSize returns the Content-Length of url, or 0 when unknown
func (s *GenerationSession) probeSize(ctx context.Context, url string) int64 {
	ctx, cancel := context.WithTimeout(ctx, sizeProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	resp, err := s.sizer.Do(req)
	if err != nil {
		log.Printf("[Session] size probe failed: %v", err)
		return 0
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.ContentLength < 0 {
		return 0
	}
	return resp.ContentLength
}

// newVideoRecord builds the history entry for a successful result. The
// thumbnail is the preview frame of the first video input, if any.
func newVideoRecord(req *models.GenerationRequest, res *models.GenerationResult, now time.Time) models.GeneratedVideoRecord {
	r := resolveSettings(req.Settings)

	metadata := &models.VideoMetadata{Resolution: r.resolution}
	if !res.Placeholder {
		metadata.Format = videoFormat(res.VideoURL)
	}

	var thumbnail string
	for _, m := range req.MediaInputs {
		if m.Kind == models.MediaVideo && m.Thumbnail != "" {
			thumbnail = m.Thumbnail
			break
		}
	}

	return models.GeneratedVideoRecord{
		ID:           res.VideoID,
		Prompt:       req.Prompt,
		Model:        req.Model,
		VideoURL:     res.VideoURL,
		ThumbnailURL: thumbnail,
		CreatedAt:    now,
		Duration:     r.duration,
		Status:       models.VideoCompleted,
		Metadata:     metadata,
	}
}

// videoFormat returns the lowercased extension of a video URL
func videoFormat(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(url), "."))
}
