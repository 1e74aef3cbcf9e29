package store

import (
	"aivideo/models"
)

// Default preference values
const (
	DefaultModel        = "replicate/google/veo-3"
	DefaultSystemPrompt = "Generate a high-quality video based on the following description. Focus on cinematic quality, smooth motion, and visual appeal."
)

// State is everything the application remembers between generations
type State struct {
	Videos        []models.GeneratedVideoRecord `json:"videos"`
	Settings      models.AppSettings            `json:"settings"`
	SelectedModel string                        `json:"selectedModel"`
}

// DefaultSettings returns the preferences used before the user changes any
func DefaultSettings() models.AppSettings {
	return models.AppSettings{
		DefaultModel: DefaultModel,
		SystemPrompt: DefaultSystemPrompt,
		AutoSave:     true,
		VideoQuality: models.QualityHigh,
	}
}

// DefaultState returns an empty history with default settings
func DefaultState() *State {
	settings := DefaultSettings()
	return &State{
		Videos:        []models.GeneratedVideoRecord{},
		Settings:      settings,
		SelectedModel: settings.DefaultModel,
	}
}

// Clone returns a deep copy safe to hand out
func (s *State) Clone() *State {
	out := *s
	out.Videos = make([]models.GeneratedVideoRecord, len(s.Videos))
	for i, v := range s.Videos {
		if v.Metadata != nil {
			md := *v.Metadata
			v.Metadata = &md
		}
		out.Videos[i] = v
	}
	return &out
}

// Action is a typed state transition
type Action interface {
	action()
}

// SetVideos replaces the whole history
type SetVideos struct{ Videos []models.GeneratedVideoRecord }

// AddVideo prepends a record (newest first)
type AddVideo struct{ Video models.GeneratedVideoRecord }

// RemoveVideo drops the record with the given id
type RemoveVideo struct{ ID string }

// ClearVideos empties the history
type ClearVideos struct{}

// UpdateSettings merges a partial settings update
type UpdateSettings struct{ Patch models.SettingsPatch }

// SelectModel changes the model used for new generations
type SelectModel struct{ ModelID string }

func (SetVideos) action()      {}
func (AddVideo) action()       {}
func (RemoveVideo) action()    {}
func (ClearVideos) action()    {}
func (UpdateSettings) action() {}
func (SelectModel) action()    {}

// Reduce applies an action to a copy of state and reports whether anything
// persisted (videos or settings) changed. state is never modified.
func Reduce(state *State, a Action) (*State, bool) {
	next := state.Clone()

	switch a := a.(type) {
	case SetVideos:
		next.Videos = append([]models.GeneratedVideoRecord{}, a.Videos...)
		return next, true

	case AddVideo:
		next.Videos = append([]models.GeneratedVideoRecord{a.Video}, next.Videos...)
		return next, true

	case RemoveVideo:
		for i, v := range next.Videos {
			if v.ID == a.ID {
				next.Videos = append(next.Videos[:i], next.Videos[i+1:]...)
				return next, true
			}
		}
		return next, false

	case ClearVideos:
		if len(next.Videos) == 0 {
			return next, false
		}
		next.Videos = []models.GeneratedVideoRecord{}
		return next, true

	case UpdateSettings:
		p := a.Patch
		if p.DefaultModel != nil {
			next.Settings.DefaultModel = *p.DefaultModel
		}
		if p.SystemPrompt != nil {
			next.Settings.SystemPrompt = *p.SystemPrompt
		}
		if p.AutoSave != nil {
			next.Settings.AutoSave = *p.AutoSave
		}
		if p.VideoQuality != nil {
			next.Settings.VideoQuality = *p.VideoQuality
		}
		return next, next.Settings != state.Settings

	case SelectModel:
		next.SelectedModel = a.ModelID
		return next, false
	}

	return next, false
}
