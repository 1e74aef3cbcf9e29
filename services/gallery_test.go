package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aivideo/models"
)

func galleryFixture() []models.GeneratedVideoRecord {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return []models.GeneratedVideoRecord{
		{ID: "b", Prompt: "Ocean waves at dusk", Model: "replicate/google/veo-3", CreatedAt: base.Add(2 * time.Hour), Status: models.VideoCompleted},
		{ID: "c", Prompt: "City at night", Model: "custom/video-model-pro", CreatedAt: base.Add(3 * time.Hour), Status: models.VideoFailed},
		{ID: "a", Prompt: "A cat on a skateboard", Model: "Replicate/black-forest-labs/flux-schnell", CreatedAt: base.Add(time.Hour), Status: models.VideoCompleted},
		{ID: "d", Prompt: "Mountain eagle", Model: "replicate/google/veo-3", CreatedAt: base, Status: models.VideoGenerating},
	}
}

func ids(videos []models.GeneratedVideoRecord) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func TestFilterVideos(t *testing.T) {
	tests := []struct {
		name  string
		query GalleryQuery
		want  []string
	}{
		{"default is newest first", GalleryQuery{}, []string{"c", "b", "a", "d"}},
		{"oldest first", GalleryQuery{Sort: SortOldest}, []string{"d", "a", "b", "c"}},
		{"by model", GalleryQuery{Sort: SortModel}, []string{"c", "a", "b", "d"}},
		{"by status", GalleryQuery{Sort: SortStatus}, []string{"b", "a", "c", "d"}},
		{"search prompt ignores case", GalleryQuery{Search: "OCEAN"}, []string{"b"}},
		{"search model", GalleryQuery{Search: "veo", Sort: SortOldest}, []string{"d", "b"}},
		{"status filter", GalleryQuery{Status: "completed"}, []string{"b", "a"}},
		{"all statuses", GalleryQuery{Status: StatusAll, Search: "night"}, []string{"c"}},
		{"no match", GalleryQuery{Search: "zebra"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos := galleryFixture()
			got := FilterVideos(videos, tt.query)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, "b", videos[0].ID, "input order is preserved")
		})
	}
}

func TestGalleryQueryValidate(t *testing.T) {
	assert.NoError(t, GalleryQuery{}.Validate())
	assert.NoError(t, GalleryQuery{Sort: SortModel, Status: "failed"}.Validate())
	assert.Error(t, GalleryQuery{Sort: "random"}.Validate())
	assert.Error(t, GalleryQuery{Status: "pending"}.Validate())
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, GalleryStats{Total: 4, Completed: 2, Generating: 1, Failed: 1}, ComputeStats(galleryFixture()))
	assert.Equal(t, GalleryStats{}, ComputeStats(nil))
}
