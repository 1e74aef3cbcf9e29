package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"aivideo/models"
	"aivideo/utils"
)

// Ingestion errors
var (
	ErrFileTooLarge     = errors.New("file exceeds size limit")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrInvalidDataURI   = errors.New("invalid data URI")
)

// DefaultAcceptedTypes are the MIME patterns accepted for upload
var DefaultAcceptedTypes = []string{"image/*", "video/*"}

// previewOffsetSeconds is where video previews are captured
const previewOffsetSeconds = 1.0

// MediaFile is a user-selected file awaiting ingestion
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64 // declared size; -1 if unknown
	Reader      io.Reader
}

// FramePreviewer captures a still image from a video
type FramePreviewer interface {
	Preview(ctx context.Context, name string, data []byte) ([]byte, error)
}

// FFmpegPreviewer extracts the preview frame with ffmpeg via a scratch file
type FFmpegPreviewer struct {
	TempDir string
}

// Preview writes the clip to a scratch dir and grabs the frame at 1s, or
// mid-clip for shorter clips
func (p *FFmpegPreviewer) Preview(ctx context.Context, name string, data []byte) ([]byte, error) {
	dir, err := utils.CreateTempDir(p.TempDir, uuid.NewString())
	if err != nil {
		return nil, err
	}
	defer utils.CleanupDir(dir)

	path := filepath.Join(dir, "input"+filepath.Ext(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write video: %w", err)
	}

	at := previewOffsetSeconds
	if d, err := utils.GetVideoDuration(ctx, path); err == nil && d < at {
		at = d / 2
	}
	return utils.ExtractFrameJPEG(ctx, path, at)
}

// MediaService ingests uploads into embeddable descriptors
type MediaService struct {
	maxBytes  int64
	accepted  []string
	previewer FramePreviewer
}

// NewMediaService creates a new media service. A nil previewer disables
// video previews.
func NewMediaService(maxBytes int64, previewer FramePreviewer) *MediaService {
	return &MediaService{
		maxBytes:  maxBytes,
		accepted:  DefaultAcceptedTypes,
		previewer: previewer,
	}
}

// Ingest validates one file and converts it into a MediaDescriptor
func (ms *MediaService) Ingest(ctx context.Context, file MediaFile) (*models.MediaDescriptor, error) {
	if file.Size > ms.maxBytes {
		return nil, fmt.Errorf("%s: %w (%d > %d bytes)", file.Name, ErrFileTooLarge, file.Size, ms.maxBytes)
	}

	// Read one byte past the limit so oversized streams are detected
	data, err := io.ReadAll(io.LimitReader(file.Reader, ms.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read file: %w", file.Name, err)
	}
	if int64(len(data)) > ms.maxBytes {
		return nil, fmt.Errorf("%s: %w (max %d bytes)", file.Name, ErrFileTooLarge, ms.maxBytes)
	}

	contentType := normalizeContentType(file.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normalizeContentType(mimetype.Detect(data).String())
	}
	if !matchesAccepted(contentType, ms.accepted) {
		return nil, fmt.Errorf("%s: %w %q", file.Name, ErrUnsupportedMedia, contentType)
	}

	kind := models.MediaVideo
	if strings.HasPrefix(contentType, "image/") {
		kind = models.MediaImage
	}

	desc := &models.MediaDescriptor{
		ID:   uuid.NewString(),
		Kind: kind,
		File: models.MediaFileInfo{
			Name: file.Name,
			Type: contentType,
			Size: int64(len(data)),
		},
		Data: EncodeDataURI(contentType, data),
	}

	if kind == models.MediaVideo && ms.previewer != nil {
		frame, err := ms.previewer.Preview(ctx, file.Name, data)
		if err != nil {
			log.Printf("[Media %s] preview unavailable for %s: %v", desc.ID, file.Name, err)
		} else {
			desc.Thumbnail = EncodeDataURI("image/jpeg", frame)
		}
	}

	return desc, nil
}

// IngestBatch ingests up to the remaining slots of a pending list. Files
// beyond the cap are ignored. A failing file does not affect the others.
func (ms *MediaService) IngestBatch(ctx context.Context, remainingSlots int, files []MediaFile) ([]*models.MediaDescriptor, []error) {
	if remainingSlots < len(files) {
		if remainingSlots < 0 {
			remainingSlots = 0
		}
		if ignored := len(files) - remainingSlots; ignored > 0 {
			log.Printf("[Media] ignoring %d file(s) beyond the pending limit", ignored)
		}
		files = files[:remainingSlots]
	}

	descs := make([]*models.MediaDescriptor, 0, len(files))
	var errs []error
	for _, f := range files {
		desc, err := ms.Ingest(ctx, f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		descs = append(descs, desc)
	}
	return descs, errs
}

// EncodeDataURI renders data as a data URI carrying its MIME type
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI returns the MIME type and raw bytes of a base64 data URI
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: not base64 encoded", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return mimeType, data, nil
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

func matchesAccepted(contentType string, accepted []string) bool {
	for _, pattern := range accepted {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(contentType, prefix) {
				return true
			}
			continue
		}
		if contentType == pattern {
			return true
		}
	}
	return false
}

// PendingMedia is the capped list of descriptors awaiting submission
type PendingMedia struct {
	max   int
	items []models.MediaDescriptor
	mu    sync.Mutex
}

// NewPendingMedia creates an empty pending list holding at most max items
func NewPendingMedia(max int) *PendingMedia {
	return &PendingMedia{max: max}
}

// Remaining returns how many more descriptors fit
func (p *PendingMedia) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.max - len(p.items)
}

// Add appends descriptors up to the cap and returns how many were kept
func (p *PendingMedia) Add(descs ...*models.MediaDescriptor) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	for _, d := range descs {
		if len(p.items) >= p.max {
			break
		}
		p.items = append(p.items, *d)
		added++
	}
	return added
}

// Remove drops a descriptor by id
func (p *PendingMedia) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, item := range p.items {
		if item.ID == id {
			p.items = append(p.items[:i:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the pending descriptors in upload order
func (p *PendingMedia) List() []models.MediaDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.MediaDescriptor, len(p.items))
	copy(out, p.items)
	return out
}

// Clear empties the list
func (p *PendingMedia) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
}
