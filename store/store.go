package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"aivideo/models"
)

// Logical entry names shared by all backends
const (
	KeyVideos   = "generated-videos"
	KeySettings = "app-settings"
)

// ErrNotFound is returned for unknown video ids
var ErrNotFound = errors.New("video not found")

// Repository persists the two state entries
type Repository interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	Close() error
}

// Store owns the application state and persists it on change
type Store struct {
	repo         Repository
	state        *State
	defaultModel string
	mu           sync.RWMutex
	saveMu       sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithDefaultModel replaces the built-in default model. A default the user
// stored in settings is kept.
func WithDefaultModel(id string) Option {
	return func(s *Store) {
		s.defaultModel = id
	}
}

// New loads the persisted state from repo
func New(ctx context.Context, repo Repository, opts ...Option) (*Store, error) {
	s := &Store{repo: repo}
	for _, opt := range opts {
		opt(s)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if s.defaultModel != "" && state.Settings.DefaultModel == DefaultModel {
		state.Settings.DefaultModel = s.defaultModel
	}
	// the selection lasts one run of the program
	state.SelectedModel = state.Settings.DefaultModel
	s.state = state

	log.Printf("[Store] loaded %d video(s)", len(state.Videos))
	return s, nil
}

// State returns a snapshot of the current state
func (s *Store) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Video looks up one history record
func (s *Store) Video(id string) (models.GeneratedVideoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.state.Videos {
		if v.ID == id {
			return v, nil
		}
	}
	return models.GeneratedVideoRecord{}, ErrNotFound
}

// Dispatch applies an action and saves when persisted state changed.
// The in-memory state is updated even if saving fails.
func (s *Store) Dispatch(ctx context.Context, a Action) error {
	// saves run in dispatch order without blocking readers
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	next, changed := Reduce(s.state, a)
	s.state = next
	s.mu.Unlock()

	if !changed {
		return nil
	}
	if err := s.repo.Save(ctx, next); err != nil {
		log.Printf("[Store] save failed: %v", err)
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Delete removes a record, returning ErrNotFound for unknown ids
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Video(id); err != nil {
		return err
	}
	return s.Dispatch(ctx, RemoveVideo{ID: id})
}

// Close releases the repository
func (s *Store) Close() error {
	return s.repo.Close()
}

// decodeEntries rebuilds state from the two raw entries. A missing entry
// keeps its default; a corrupt one is logged and replaced by the default.
func decodeEntries(backend string, videos, settings []byte, unmarshal func([]byte, any) error) *State {
	state := DefaultState()

	if len(videos) > 0 {
		var list []models.GeneratedVideoRecord
		if err := unmarshal(videos, &list); err != nil {
			log.Printf("[Store] %s: ignoring corrupt %s entry: %v", backend, KeyVideos, err)
		} else if list != nil {
			state.Videos = list
		}
	}

	if len(settings) > 0 {
		merged := DefaultSettings()
		if err := unmarshal(settings, &merged); err != nil {
			log.Printf("[Store] %s: ignoring corrupt %s entry: %v", backend, KeySettings, err)
		} else {
			state.Settings = merged
		}
	}

	state.SelectedModel = state.Settings.DefaultModel
	return state
}
