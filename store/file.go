package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"aivideo/utils"
)

// FileRepository stores each entry as a JSON file in one directory
type FileRepository struct {
	dir string
}

// NewFileRepository creates a repository rooted at dir
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (f *FileRepository) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileRepository) read(key string) ([]byte, error) {
	path := f.path(key)
	if !utils.FileExists(path) {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (f *FileRepository) Load(_ context.Context) (*State, error) {
	videos, err := f.read(KeyVideos)
	if err != nil {
		return nil, err
	}
	settings, err := f.read(KeySettings)
	if err != nil {
		return nil, err
	}
	return decodeEntries("file", videos, settings, json.Unmarshal), nil
}

func (f *FileRepository) Save(_ context.Context, state *State) error {
	videos, err := json.MarshalIndent(state.Videos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode videos: %w", err)
	}
	settings, err := json.MarshalIndent(state.Settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := utils.WriteFileAtomic(f.path(KeyVideos), videos); err != nil {
		return err
	}
	return utils.WriteFileAtomic(f.path(KeySettings), settings)
}

func (f *FileRepository) Close() error { return nil }
