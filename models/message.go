package models

// GenerationType labels which inputs drove a request
type GenerationType string

const (
	TextToVideo       GenerationType = "text-to-video"
	ImageToVideo      GenerationType = "image-to-video"
	VideoToVideo      GenerationType = "video-to-video"
	MixedMediaToVideo GenerationType = "mixed-media-to-video"
)

// ContentPart is one item of a multimodal message.
// Implemented only by TextPart, ImagePart and FilePart.
type ContentPart interface {
	contentPart()
}

// TextPart is a plain text segment
type TextPart struct {
	Text string
}

// ImagePart references an inline image (data URI)
type ImagePart struct {
	URL string
}

// FilePart carries an inline file such as a video
type FilePart struct {
	Filename string
	FileData string
}

func (TextPart) contentPart()  {}
func (ImagePart) contentPart() {}
func (FilePart) contentPart()  {}

// OutboundMessage is the single user message sent upstream. Exactly one of
// Text or Parts is used: Parts when the request carries media.
type OutboundMessage struct {
	Text  string
	Parts []ContentPart
}

// IsMultipart reports whether the message is sent as a content array
func (m OutboundMessage) IsMultipart() bool {
	return len(m.Parts) > 0
}
