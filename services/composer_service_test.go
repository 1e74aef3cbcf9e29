package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aivideo/models"
)

func testImage(id string) models.MediaDescriptor {
	return models.MediaDescriptor{
		ID:   id,
		Kind: models.MediaImage,
		File: models.MediaFileInfo{Name: id + ".png", Type: "image/png"},
		Data: "data:image/png;base64,iVBORw0KGgo=",
	}
}

func testVideo(id string) models.MediaDescriptor {
	return models.MediaDescriptor{
		ID:   id,
		Kind: models.MediaVideo,
		File: models.MediaFileInfo{Name: id + ".mp4", Type: "video/mp4"},
		Data: "data:video/mp4;base64,AAAAIGZ0eXA=",
	}
}

func TestClassifyGenerationType(t *testing.T) {
	tests := []struct {
		name  string
		media []models.MediaDescriptor
		want  models.GenerationType
	}{
		{"no media", nil, models.TextToVideo},
		{"images only", []models.MediaDescriptor{testImage("a"), testImage("b")}, models.ImageToVideo},
		{"videos only", []models.MediaDescriptor{testVideo("a")}, models.VideoToVideo},
		{"video then image", []models.MediaDescriptor{testVideo("a"), testImage("b")}, models.MixedMediaToVideo},
		{"image then video", []models.MediaDescriptor{testImage("a"), testVideo("b"), testImage("c")}, models.MixedMediaToVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyGenerationType(tt.media))
		})
	}
}

func TestComposeTextOnlyAppliesDefaults(t *testing.T) {
	cs := NewComposerService()
	msg := cs.Compose("A cat on a skateboard", nil, nil, "")

	require.False(t, msg.IsMultipart())
	assert.Contains(t, msg.Text, DefaultInstruction)
	assert.Contains(t, msg.Text, "- Duration: 30 seconds")
	assert.Contains(t, msg.Text, "- Resolution: 1920x1080")
	assert.Contains(t, msg.Text, "- Style: cinematic")
	assert.Contains(t, msg.Text, "User Prompt: A cat on a skateboard")
	assert.NotContains(t, msg.Text, "Transformation Strength")
	assert.Empty(t, msg.Parts)
}

func TestComposeTextOnlyUsesSystemPrompt(t *testing.T) {
	cs := NewComposerService()
	msg := cs.Compose("waves", &models.GenerationSettings{Duration: 12, Style: "anime"}, nil, "Make it dreamy.")

	assert.True(t, len(msg.Text) > 0)
	assert.Equal(t, "Make it dreamy.", msg.Text[:len("Make it dreamy.")])
	assert.NotContains(t, msg.Text, DefaultInstruction)
	assert.Contains(t, msg.Text, "- Duration: 12 seconds")
	assert.Contains(t, msg.Text, "- Style: anime")
}

func TestComposeImageScenario(t *testing.T) {
	cs := NewComposerService()
	msg := cs.Compose("animate this", nil, []models.MediaDescriptor{testImage("img1")}, "")

	require.True(t, msg.IsMultipart())
	require.Len(t, msg.Parts, 2)

	text, ok := msg.Parts[0].(models.TextPart)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Generation Type: image-to-video")
	assert.Contains(t, text.Text, "Description: animate this")
	assert.Contains(t, text.Text, "- Transformation Strength: 0.7 (0.1=subtle, 1.0=dramatic)")
	assert.Contains(t, text.Text, "- Motion Level: 127 (1=minimal, 255=maximum)")
	assert.Contains(t, text.Text, "visual reference or starting point")
	assert.NotContains(t, text.Text, "Transform or continue the video")

	img, ok := msg.Parts[1].(models.ImagePart)
	require.True(t, ok)
	assert.Equal(t, testImage("img1").Data, img.URL)
}

func TestComposeVideoUsesFileItems(t *testing.T) {
	cs := NewComposerService()
	settings := &models.GenerationSettings{Strength: 0.3, MotionBucket: 200}
	msg := cs.Compose("", settings, []models.MediaDescriptor{testVideo("clip"), testImage("still")}, "")

	require.Len(t, msg.Parts, 3)
	text := msg.Parts[0].(models.TextPart)
	assert.Contains(t, text.Text, "Generation Type: mixed-media-to-video")
	assert.NotContains(t, text.Text, "Description:")
	assert.Contains(t, text.Text, "- Transformation Strength: 0.3")
	assert.Contains(t, text.Text, "- Motion Level: 200")

	file, ok := msg.Parts[1].(models.FilePart)
	require.True(t, ok)
	assert.Equal(t, "clip.mp4", file.Filename)
	assert.Equal(t, testVideo("clip").Data, file.FileData)

	_, ok = msg.Parts[2].(models.ImagePart)
	assert.True(t, ok)
}

func TestComposeSkipsMediaWithoutPayload(t *testing.T) {
	cs := NewComposerService()
	empty := testImage("empty")
	empty.Data = ""
	msg := cs.Compose("x", nil, []models.MediaDescriptor{empty, testImage("ok")}, "")
	assert.Len(t, msg.Parts, 2)
}

func TestComposeIsIdempotent(t *testing.T) {
	cs := NewComposerService()
	settings := &models.GenerationSettings{Duration: 45, Resolution: "1280x720"}
	media := []models.MediaDescriptor{testImage("a"), testVideo("b")}

	first := cs.Compose("ocean at dusk", settings, media, "")
	second := cs.Compose("ocean at dusk", settings, media, "")

	assert.Equal(t, first, second)
	assert.Equal(t, 45, settings.Duration)
	assert.Equal(t, "", settings.Style)
}

func TestExamplePromptsFollowMedia(t *testing.T) {
	assert.Contains(t, ExamplePrompts(nil)[0], "eagle")
	assert.Contains(t, ExamplePrompts([]models.MediaDescriptor{testImage("a")})[0], "Bring this image to life")
	assert.Contains(t, ExamplePrompts([]models.MediaDescriptor{testVideo("a")})[0], "similar motion patterns")
	assert.Len(t, ExamplePrompts([]models.MediaDescriptor{testImage("a"), testVideo("b")}), 3)
}
