package models

import "time"

// MediaKind distinguishes image and video inputs
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaFileInfo describes the file a descriptor was ingested from
type MediaFileInfo struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// MediaDescriptor is an ingested image or video, encoded for inline transport
type MediaDescriptor struct {
	ID        string        `json:"id"`
	Kind      MediaKind     `json:"type"`
	File      MediaFileInfo `json:"file"`
	Data      string        `json:"base64,omitempty"`    // data URI
	Thumbnail string        `json:"thumbnail,omitempty"` // data URI, video only
}

// GenerationSettings are the user-tunable knobs of a request.
// Zero values mean "not set"; the composer substitutes defaults.
type GenerationSettings struct {
	Duration     int     `json:"duration,omitempty"`
	Resolution   string  `json:"resolution,omitempty"`
	Style        string  `json:"style,omitempty"`
	Strength     float64 `json:"strength,omitempty"`     // 0.1-1.0
	MotionBucket int     `json:"motionBucket,omitempty"` // 1-255
}

// GenerationRequest is the body of the proxy endpoint
type GenerationRequest struct {
	Prompt       string              `json:"prompt"`
	Model        string              `json:"model"`
	MediaInputs  []MediaDescriptor   `json:"mediaInputs,omitempty"`
	Settings     *GenerationSettings `json:"settings,omitempty"`
	SystemPrompt string              `json:"systemPrompt,omitempty"`
}

// GenerationResult is produced exactly once per submission
type GenerationResult struct {
	Success     bool   `json:"success"`
	VideoID     string `json:"videoId"`
	VideoURL    string `json:"videoUrl,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// VideoStatus is the lifecycle state of a history record
type VideoStatus string

const (
	VideoGenerating VideoStatus = "generating"
	VideoCompleted  VideoStatus = "completed"
	VideoFailed     VideoStatus = "failed"
)

// VideoMetadata is optional descriptive data of a generated video
type VideoMetadata struct {
	Resolution string `json:"resolution,omitempty" msgpack:"resolution,omitempty"`
	FileSize   int64  `json:"fileSize,omitempty" msgpack:"fileSize,omitempty"`
	Format     string `json:"format,omitempty" msgpack:"format,omitempty"`
}

// GeneratedVideoRecord is one entry of the persisted history
type GeneratedVideoRecord struct {
	ID           string         `json:"id" msgpack:"id"`
	Prompt       string         `json:"prompt" msgpack:"prompt"`
	Model        string         `json:"model" msgpack:"model"`
	VideoURL     string         `json:"videoUrl" msgpack:"videoUrl"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty" msgpack:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time      `json:"createdAt" msgpack:"createdAt"`
	Duration     int            `json:"duration,omitempty" msgpack:"duration,omitempty"`
	Status       VideoStatus    `json:"status" msgpack:"status"`
	Metadata     *VideoMetadata `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// ProgressStatus is the coarse state shown while a request is outstanding
type ProgressStatus string

const (
	ProgressIdle       ProgressStatus = "idle"
	ProgressPreparing  ProgressStatus = "preparing"
	ProgressGenerating ProgressStatus = "generating"
	ProgressProcessing ProgressStatus = "processing"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"
)

// ProgressState drives user feedback only
type ProgressState struct {
	Status                 ProgressStatus `json:"status"`
	Progress               int            `json:"progress"`
	Message                string         `json:"message"`
	EstimatedTimeRemaining int            `json:"estimatedTimeRemaining,omitempty"` // seconds
}

// VideoQuality tiers of AppSettings
type VideoQuality string

const (
	QualityStandard VideoQuality = "standard"
	QualityHigh     VideoQuality = "high"
	QualityUltra    VideoQuality = "ultra"
)

// AppSettings are the persisted user preferences
type AppSettings struct {
	DefaultModel string       `json:"defaultModel" msgpack:"defaultModel"`
	SystemPrompt string       `json:"systemPrompt" msgpack:"systemPrompt"`
	AutoSave     bool         `json:"autoSave" msgpack:"autoSave"`
	VideoQuality VideoQuality `json:"videoQuality" msgpack:"videoQuality"`
}

// SettingsPatch is a partial AppSettings update; nil fields are left alone
type SettingsPatch struct {
	DefaultModel *string       `json:"defaultModel,omitempty"`
	SystemPrompt *string       `json:"systemPrompt,omitempty"`
	AutoSave     *bool         `json:"autoSave,omitempty"`
	VideoQuality *VideoQuality `json:"videoQuality,omitempty"`
}

// AIModel describes an entry of the model catalog
type AIModel struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	MaxDuration  int      `json:"maxDuration" yaml:"max_duration"`
	IsAvailable  bool     `json:"isAvailable" yaml:"available"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
}
