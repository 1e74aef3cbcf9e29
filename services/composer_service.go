package services

import (
	"fmt"
	"strconv"
	"strings"

	"aivideo/models"
)

// Setting defaults applied when a request leaves a field unset
const (
	DefaultDuration     = 30
	DefaultResolution   = "1920x1080"
	DefaultStyle        = "cinematic"
	DefaultStrength     = 0.7
	DefaultMotionBucket = 127
)

// DefaultInstruction leads the text-only prompt unless a system prompt is configured
const DefaultInstruction = "Generate a high-quality video based on the following description. Focus on cinematic quality, smooth motion, and visual appeal."

// ComposerService turns a prompt, settings and media into one outbound message.
// It holds no state; identical inputs always yield identical messages.
type ComposerService struct{}

// NewComposerService creates a new composer service
func NewComposerService() *ComposerService {
	return &ComposerService{}
}

// ClassifyGenerationType labels a request by the kinds of media it carries
func ClassifyGenerationType(media []models.MediaDescriptor) models.GenerationType {
	var hasImages, hasVideos bool
	for _, m := range media {
		switch m.Kind {
		case models.MediaImage:
			hasImages = true
		case models.MediaVideo:
			hasVideos = true
		}
	}

	switch {
	case hasImages && hasVideos:
		return models.MixedMediaToVideo
	case hasImages:
		return models.ImageToVideo
	case hasVideos:
		return models.VideoToVideo
	default:
		return models.TextToVideo
	}
}

// resolvedSettings is GenerationSettings with every default filled in
type resolvedSettings struct {
	duration   int
	resolution string
	style      string
	strength   float64
	motion     int
}

func resolveSettings(s *models.GenerationSettings) resolvedSettings {
	r := resolvedSettings{
		duration:   DefaultDuration,
		resolution: DefaultResolution,
		style:      DefaultStyle,
		strength:   DefaultStrength,
		motion:     DefaultMotionBucket,
	}
	if s == nil {
		return r
	}
	if s.Duration > 0 {
		r.duration = s.Duration
	}
	if s.Resolution != "" {
		r.resolution = s.Resolution
	}
	if s.Style != "" {
		r.style = s.Style
	}
	if s.Strength > 0 {
		r.strength = s.Strength
	}
	if s.MotionBucket > 0 {
		r.motion = s.MotionBucket
	}
	return r
}

// Compose builds the outbound message. Without media it is a single plain
// text instruction; with media it is a text segment followed by one item per
// descriptor that carries a payload.
func (cs *ComposerService) Compose(prompt string, settings *models.GenerationSettings, media []models.MediaDescriptor, systemPrompt string) models.OutboundMessage {
	r := resolveSettings(settings)

	if len(media) == 0 {
		return models.OutboundMessage{Text: textOnlyPrompt(prompt, r, systemPrompt)}
	}

	genType := ClassifyGenerationType(media)
	parts := make([]models.ContentPart, 0, len(media)+1)
	parts = append(parts, models.TextPart{Text: multimodalPrompt(prompt, r, genType)})

	for _, m := range media {
		if m.Data == "" {
			continue
		}
		switch m.Kind {
		case models.MediaImage:
			parts = append(parts, models.ImagePart{URL: m.Data})
		case models.MediaVideo:
			parts = append(parts, models.FilePart{Filename: m.File.Name, FileData: m.Data})
		}
	}

	return models.OutboundMessage{Parts: parts}
}

func textOnlyPrompt(prompt string, r resolvedSettings, systemPrompt string) string {
	instruction := strings.TrimSpace(systemPrompt)
	if instruction == "" {
		instruction = DefaultInstruction
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nVideo Settings:\n")
	fmt.Fprintf(&b, "- Duration: %d seconds\n", r.duration)
	fmt.Fprintf(&b, "- Resolution: %s\n", r.resolution)
	fmt.Fprintf(&b, "- Style: %s\n", r.style)
	fmt.Fprintf(&b, "\nUser Prompt: %s\n\n", prompt)
	b.WriteString("Generate a professional-quality video that matches this description with smooth motion, appropriate pacing, and high visual fidelity.")
	return b.String()
}

func multimodalPrompt(prompt string, r resolvedSettings, genType models.GenerationType) string {
	var b strings.Builder
	b.WriteString("Generate a high-quality video based on the uploaded media and description.\n\n")
	fmt.Fprintf(&b, "Generation Type: %s\n", genType)
	if p := strings.TrimSpace(prompt); p != "" {
		fmt.Fprintf(&b, "Description: %s\n", p)
	}

	b.WriteString("\nVideo Settings:\n")
	fmt.Fprintf(&b, "- Duration: %d seconds\n", r.duration)
	fmt.Fprintf(&b, "- Resolution: %s\n", r.resolution)
	fmt.Fprintf(&b, "- Style: %s\n", r.style)
	fmt.Fprintf(&b, "- Transformation Strength: %s (0.1=subtle, 1.0=dramatic)\n", strconv.FormatFloat(r.strength, 'f', -1, 64))
	fmt.Fprintf(&b, "- Motion Level: %d (1=minimal, 255=maximum)\n", r.motion)

	b.WriteString("\nInstructions:\n")
	if genType == models.ImageToVideo || genType == models.MixedMediaToVideo {
		b.WriteString("- Use the provided image(s) as visual reference or starting point for animation\n")
	}
	if genType == models.VideoToVideo || genType == models.MixedMediaToVideo {
		b.WriteString("- Transform or continue the video content with the specified modifications\n")
	}
	b.WriteString("- Focus on cinematic quality, smooth motion, and visual appeal\n")
	b.WriteString("- Ensure professional-grade output with proper lighting and composition\n")
	b.WriteString("- Maintain temporal consistency and natural motion flow")
	return b.String()
}

// ExamplePrompts suggests prompts that fit the pending media
func ExamplePrompts(media []models.MediaDescriptor) []string {
	switch ClassifyGenerationType(media) {
	case models.MixedMediaToVideo:
		return []string{
			"Transform this image into a dynamic video scene with the motion style from the reference video",
			"Create a seamless transition between the image and video elements with cinematic flow",
			"Animate the image using the video's motion patterns and visual style",
		}
	case models.ImageToVideo:
		return []string{
			"Bring this image to life with gentle camera movements and natural lighting changes",
			"Create a cinemagraph effect with subtle motion while keeping the main subject stable",
			"Add dynamic weather effects and atmospheric elements to this scene",
		}
	case models.VideoToVideo:
		return []string{
			"Create a new video with similar motion patterns but in a different setting",
			"Transform the style while maintaining the original motion and composition",
			"Generate a continuation of this video with evolved scene elements",
		}
	default:
		return []string{
			"A majestic eagle soaring through mountain valleys with cinematic lighting",
			"Waves crashing on a tropical beach at sunset with golden hour lighting",
			"A bustling cyberpunk city street at night with neon lights and rain",
		}
	}
}
