package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aivideo/models"
	"aivideo/utils"
)

var testPlaceholders = Placeholders{
	NoMatch: "https://example.com/placeholder-no-match.png",
	NoReply: "https://example.com/placeholder-no-reply.png",
}

// upstreamStub records the last chat-completions request it received
type upstreamStub struct {
	mu      sync.Mutex
	calls   int
	headers http.Header
	body    map[string]any
}

func (u *upstreamStub) lastBody() map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.body
}

func newUpstream(t *testing.T, status int, content *string) (*httptest.Server, *upstreamStub) {
	t.Helper()
	stub := &upstreamStub{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		stub.mu.Lock()
		stub.calls++
		stub.headers = r.Header.Clone()
		stub.body = body
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}

		choices := []map[string]any{}
		if content != nil {
			choices = append(choices, map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": *content},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test",
			"choices": choices,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, stub
}

func newTestOrchestrator(srv *httptest.Server) *Orchestrator {
	client := NewChatCompletionsClient(InferenceOptions{
		BaseURL:    srv.URL + "/",
		CustomerID: "cus_test",
		Tokens:     utils.NewTokenPool([]string{"tok-1"}),
		Cooldown:   time.Minute,
	})
	return NewOrchestrator(NewComposerService(), client, testPlaceholders)
}

// recorder collects progress states
type recorder struct {
	mu     sync.Mutex
	states []models.ProgressState
}

func (r *recorder) Report(s models.ProgressState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) statuses() []models.ProgressStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ProgressStatus, len(r.states))
	for i, s := range r.states {
		out[i] = s.Status
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestSubmitTextPromptSuccess(t *testing.T) {
	srv, stub := newUpstream(t, http.StatusOK, strPtr("Here you go: https://cdn.example.com/out/clip.MP4 enjoy"))
	o := newTestOrchestrator(srv)
	rec := &recorder{}

	res, err := o.Submit(context.Background(), &models.GenerationRequest{
		Prompt: "A cat on a skateboard",
		Model:  "replicate/google/veo-3",
	}, rec)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "https://cdn.example.com/out/clip.MP4", res.VideoURL)
	assert.False(t, res.Placeholder)
	assert.Equal(t, "Video generated successfully", res.Message)
	assert.Regexp(t, regexp.MustCompile(`^video_\d+_[0-9a-z]{9}$`), res.VideoID)

	assert.Equal(t, []models.ProgressStatus{
		models.ProgressPreparing, models.ProgressGenerating, models.ProgressCompleted,
	}, rec.statuses())
	assert.Equal(t, 0, rec.states[0].Progress)
	assert.Equal(t, 10, rec.states[1].Progress)
	assert.Equal(t, 900, rec.states[1].EstimatedTimeRemaining)
	assert.Equal(t, 100, rec.states[2].Progress)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "cus_test", stub.headers.Get("customerId"))
	assert.Equal(t, "Bearer tok-1", stub.headers.Get("Authorization"))

	body := stub.lastBody()
	assert.Equal(t, "replicate/google/veo-3", body["model"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	content, ok := msg["content"].(string)
	require.True(t, ok, "text-only content is a plain string")
	assert.Contains(t, content, "User Prompt: A cat on a skateboard")
}

func TestSubmitEmptyRequestIsRejectedWithoutProgress(t *testing.T) {
	srv, stub := newUpstream(t, http.StatusOK, strPtr("unused"))
	o := newTestOrchestrator(srv)
	rec := &recorder{}

	res, err := o.Submit(context.Background(), &models.GenerationRequest{Model: "m"}, rec)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrPromptOrMediaRequired)
	assert.False(t, res.Success)
	assert.Equal(t, "Either text prompt or media inputs are required", res.Error)
	assert.Empty(t, rec.statuses())
	assert.Equal(t, 0, stub.calls)
}

func TestSubmitMissingModel(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, strPtr("unused"))
	o := newTestOrchestrator(srv)

	res, err := o.Submit(context.Background(), &models.GenerationRequest{Prompt: "hi"}, nil)
	assert.ErrorIs(t, err, ErrModelRequired)
	assert.Equal(t, "Model is required", res.Error)
}

func TestSubmitImageSendsTwoContentItems(t *testing.T) {
	srv, stub := newUpstream(t, http.StatusOK, strPtr("https://cdn.example.com/a.webm"))
	o := newTestOrchestrator(srv)

	res, err := o.Submit(context.Background(), &models.GenerationRequest{
		Prompt:      "animate this",
		Model:       "replicate/google/veo-3",
		MediaInputs: []models.MediaDescriptor{testImage("img1")},
	}, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	msg := stub.lastBody()["messages"].([]any)[0].(map[string]any)
	items, ok := msg["content"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	text := items[0].(map[string]any)
	assert.Equal(t, "text", text["type"])
	assert.Contains(t, text["text"], "Generation Type: image-to-video")

	img := items[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, testImage("img1").Data, img["image_url"].(map[string]any)["url"])
}

func TestSubmitVideoSendsFileItem(t *testing.T) {
	srv, stub := newUpstream(t, http.StatusOK, strPtr("https://cdn.example.com/a.mp4"))
	o := newTestOrchestrator(srv)

	_, err := o.Submit(context.Background(), &models.GenerationRequest{
		Model:       "replicate/google/veo-3",
		MediaInputs: []models.MediaDescriptor{testVideo("clip"), testImage("still")},
	}, nil)
	require.NoError(t, err)

	msg := stub.lastBody()["messages"].([]any)[0].(map[string]any)
	items := msg["content"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "text", items[0].(map[string]any)["type"])

	raw, err := json.Marshal(items[1:])
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"file","file":{"filename":"clip.mp4","file_data":"data:video/mp4;base64,AAAAIGZ0eXA="}},
		{"type":"image_url","image_url":{"url":"data:image/png;base64,iVBORw0KGgo="}}
	]`, string(raw))
}

func TestSubmitUpstreamFailure(t *testing.T) {
	srv, stub := newUpstream(t, http.StatusInternalServerError, nil)
	o := newTestOrchestrator(srv)
	rec := &recorder{}

	res, err := o.Submit(context.Background(), &models.GenerationRequest{Prompt: "x", Model: "m"}, rec)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.False(t, res.Success)
	assert.Equal(t, "AI API error: 500 Internal Server Error", res.Error)
	assert.Empty(t, res.VideoURL)

	// exactly one attempt, no retry
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, []models.ProgressStatus{
		models.ProgressPreparing, models.ProgressGenerating, models.ProgressFailed,
	}, rec.statuses())
	assert.Equal(t, res.Error, rec.states[2].Message)
}

func TestSubmitPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    string
	}{
		{"reply without url", strPtr("I made a lovely video for you."), testPlaceholders.NoMatch},
		{"image url only", strPtr("https://cdn.example.com/a.png"), testPlaceholders.NoMatch},
		{"empty reply", strPtr(""), testPlaceholders.NoReply},
		{"no choices", nil, testPlaceholders.NoReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, http.StatusOK, tt.content)
			res, err := newTestOrchestrator(srv).Submit(context.Background(), &models.GenerationRequest{Prompt: "x", Model: "m"}, nil)
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.True(t, res.Placeholder)
			assert.Equal(t, tt.want, res.VideoURL)
		})
	}
}

func TestSubmitCoolsDownRejectedToken(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusTooManyRequests, nil)
	pool := utils.NewTokenPool([]string{"only"})
	client := NewChatCompletionsClient(InferenceOptions{
		BaseURL:  srv.URL + "/",
		Tokens:   pool,
		Cooldown: time.Hour,
	})
	o := NewOrchestrator(NewComposerService(), client, testPlaceholders)

	_, err := o.Submit(context.Background(), &models.GenerationRequest{Prompt: "x", Model: "m"}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, pool.Stats().Cooling)

	// the pool is exhausted; the next attempt fails before any request
	_, err = o.Submit(context.Background(), &models.GenerationRequest{Prompt: "x", Model: "m"}, nil)
	assert.ErrorIs(t, err, utils.ErrNoTokens)
}

// fakeClient is an in-process InferenceClient. With block set it waits for
// block to close; ignoreCancel makes it deliver its reply even after the
// context ends.
type fakeClient struct {
	reply        string
	err          error
	block        chan struct{}
	entered      chan struct{}
	ignoreCancel bool
	calls        int
}

func (f *fakeClient) Complete(ctx context.Context, _ string, _ models.OutboundMessage) (string, error) {
	f.calls++
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		if f.ignoreCancel {
			<-f.block
		} else {
			select {
			case <-f.block:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return f.reply, f.err
}

func TestSubmitWrapsTransportErrors(t *testing.T) {
	o := NewOrchestrator(NewComposerService(), &fakeClient{err: errors.New("connection refused")}, testPlaceholders)

	res, err := o.Submit(context.Background(), &models.GenerationRequest{Prompt: "x", Model: "m"}, nil)
	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 0, upErr.StatusCode)
	assert.Equal(t, "AI API error: connection refused", res.Error)
}

func TestSubmitHonorsContextCancellation(t *testing.T) {
	fc := &fakeClient{block: make(chan struct{}), reply: "https://x/y.mp4"}
	o := NewOrchestrator(NewComposerService(), fc, testPlaceholders)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := o.Submit(ctx, &models.GenerationRequest{Prompt: "x", Model: "m"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Success)
}

func TestNewVideoIDUsesClock(t *testing.T) {
	o := NewOrchestrator(NewComposerService(), &fakeClient{}, testPlaceholders)
	o.now = func() time.Time { return time.UnixMilli(1700000000123) }

	id := o.newVideoID()
	assert.Regexp(t, `^video_1700000000123_[0-9a-z]{9}$`, id)
	assert.NotEqual(t, id, o.newVideoID())
}
