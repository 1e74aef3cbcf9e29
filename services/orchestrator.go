package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aivideo/models"
)

// Validation errors, returned before any network call
var (
	ErrPromptOrMediaRequired = errors.New("Either text prompt or media inputs are required")
	ErrModelRequired         = errors.New("Model is required")
)

// ValidationError marks a request rejected before submission
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// videoURLPattern finds the first http(s) URL ending in a video extension
var videoURLPattern = regexp.MustCompile(`(?i)(https?://\S+\.(mp4|mov|avi|webm))`)

// estimatedGenerationSeconds is the ETA hint reported while waiting upstream
const estimatedGenerationSeconds = 900

// ProgressReporter receives progress states in order
type ProgressReporter interface {
	Report(state models.ProgressState)
}

// ProgressFunc adapts a function to ProgressReporter
type ProgressFunc func(state models.ProgressState)

// Report calls f(state)
func (f ProgressFunc) Report(state models.ProgressState) { f(state) }

// Placeholders are substituted when the reply carries no usable video URL
type Placeholders struct {
	NoMatch string // reply text present, no URL matched
	NoReply string // reply had no text at all
}

// Orchestrator validates, composes, submits and interprets one generation
type Orchestrator struct {
	composer     *ComposerService
	client       InferenceClient
	placeholders Placeholders
	now          func() time.Time
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(composer *ComposerService, client InferenceClient, placeholders Placeholders) *Orchestrator {
	return &Orchestrator{
		composer:     composer,
		client:       client,
		placeholders: placeholders,
		now:          time.Now,
	}
}

// Validate checks the request invariants
func Validate(req *models.GenerationRequest) error {
	if strings.TrimSpace(req.Prompt) == "" && len(req.MediaInputs) == 0 {
		return &ValidationError{Err: ErrPromptOrMediaRequired}
	}
	if req.Model == "" {
		return &ValidationError{Err: ErrModelRequired}
	}
	return nil
}

// Submit runs one request end to end. The returned result is never nil;
// the error is a *ValidationError or *UpstreamError describing a failure.
// reporter may be nil.
func (o *Orchestrator) Submit(ctx context.Context, req *models.GenerationRequest, reporter ProgressReporter) (*models.GenerationResult, error) {
	if reporter == nil {
		reporter = ProgressFunc(func(models.ProgressState) {})
	}

	if err := Validate(req); err != nil {
		return &models.GenerationResult{Success: false, Error: err.Error()}, err
	}

	reporter.Report(models.ProgressState{
		Status:   models.ProgressPreparing,
		Progress: 0,
		Message:  "Preparing video generation request...",
	})

	msg := o.composer.Compose(req.Prompt, req.Settings, req.MediaInputs, req.SystemPrompt)

	reporter.Report(models.ProgressState{
		Status:                 models.ProgressGenerating,
		Progress:               10,
		Message:                "Sending request to AI model...",
		EstimatedTimeRemaining: estimatedGenerationSeconds,
	})

	genType := ClassifyGenerationType(req.MediaInputs)
	log.Printf("[Generation] %s with model %s (%d media input(s))", genType, req.Model, len(req.MediaInputs))

	reply, err := o.client.Complete(ctx, req.Model, msg)
	if err != nil {
		var upErr *UpstreamError
		if !errors.As(err, &upErr) {
			upErr = &UpstreamError{Err: err}
		}
		log.Printf("[Generation] FAILED: %v", upErr)
		reporter.Report(models.ProgressState{
			Status:   models.ProgressFailed,
			Progress: 0,
			Message:  upErr.Error(),
		})
		return &models.GenerationResult{Success: false, Error: upErr.Error()}, upErr
	}

	videoURL, placeholder := o.extractVideoURL(reply)
	videoID := o.newVideoID()
	if placeholder {
		log.Printf("[Generation %s] no video URL in reply, using placeholder", videoID)
	}

	reporter.Report(models.ProgressState{
		Status:   models.ProgressCompleted,
		Progress: 100,
		Message:  "Video generation completed!",
	})

	return &models.GenerationResult{
		Success:     true,
		VideoID:     videoID,
		VideoURL:    videoURL,
		Message:     "Video generated successfully",
		Placeholder: placeholder,
	}, nil
}

// extractVideoURL returns the first video URL in the reply, or a placeholder
func (o *Orchestrator) extractVideoURL(reply string) (string, bool) {
	if reply == "" {
		return o.placeholders.NoReply, true
	}
	if m := videoURLPattern.FindStringSubmatch(reply); m != nil {
		return m[1], false
	}
	return o.placeholders.NoMatch, true
}

// newVideoID combines the current time with a short random suffix.
// Collisions are improbable, not impossible.
func (o *Orchestrator) newVideoID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("video_%s_%s", strconv.FormatInt(o.now().UnixMilli(), 10), suffix)
}
