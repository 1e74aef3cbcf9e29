package services

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"aivideo/models"
)

// Gallery sort orders
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortModel  = "model"
	SortStatus = "status"
)

// StatusAll disables the status filter
const StatusAll = "all"

// GalleryQuery selects and orders history records
type GalleryQuery struct {
	Search string // case-insensitive substring of prompt or model
	Status string // "all" or a VideoStatus
	Sort   string
}

// Validate rejects unknown sort orders and statuses
func (q GalleryQuery) Validate() error {
	switch q.Sort {
	case "", SortNewest, SortOldest, SortModel, SortStatus:
	default:
		return fmt.Errorf("unknown sort order %q", q.Sort)
	}
	switch models.VideoStatus(q.Status) {
	case "", StatusAll, models.VideoCompleted, models.VideoGenerating, models.VideoFailed:
	default:
		return fmt.Errorf("unknown status %q", q.Status)
	}
	return nil
}

// FilterVideos returns the matching records in the requested order.
// videos is not modified.
func FilterVideos(videos []models.GeneratedVideoRecord, q GalleryQuery) []models.GeneratedVideoRecord {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]models.GeneratedVideoRecord, 0, len(videos))
	for _, v := range videos {
		if search != "" &&
			!strings.Contains(strings.ToLower(v.Prompt), search) &&
			!strings.Contains(strings.ToLower(v.Model), search) {
			continue
		}
		if q.Status != "" && q.Status != StatusAll && string(v.Status) != q.Status {
			continue
		}
		out = append(out, v)
	}

	switch q.Sort {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b models.GeneratedVideoRecord) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case SortModel:
		slices.SortStableFunc(out, func(a, b models.GeneratedVideoRecord) int {
			return cmp.Compare(strings.ToLower(a.Model), strings.ToLower(b.Model))
		})
	case SortStatus:
		slices.SortStableFunc(out, func(a, b models.GeneratedVideoRecord) int {
			return cmp.Compare(a.Status, b.Status)
		})
	default:
		slices.SortStableFunc(out, func(a, b models.GeneratedVideoRecord) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

// GalleryStats counts history records by status
type GalleryStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Generating int `json:"generating"`
	Failed     int `json:"failed"`
}

// ComputeStats summarizes videos
func ComputeStats(videos []models.GeneratedVideoRecord) GalleryStats {
	stats := GalleryStats{Total: len(videos)}
	for _, v := range videos {
		switch v.Status {
		case models.VideoCompleted:
			stats.Completed++
		case models.VideoGenerating:
			stats.Generating++
		case models.VideoFailed:
			stats.Failed++
		}
	}
	return stats
}
