package services

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"aivideo/models"
)

//go:embed models.yaml
var defaultCatalog []byte

// Catalog is the list of known models
type Catalog struct {
	models []models.AIModel
}

// LoadCatalog reads the catalog from path, or the built-in list when path
// is empty
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read models file: %w", err)
		}
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML model list
func ParseCatalog(data []byte) (*Catalog, error) {
	var list []models.AIModel
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse models file: %w", err)
	}

	seen := make(map[string]bool, len(list))
	for _, m := range list {
		if m.ID == "" {
			return nil, errors.New("model entry without id")
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
	}
	return &Catalog{models: list}, nil
}

// All returns every model, including unavailable ones
func (c *Catalog) All() []models.AIModel {
	return append([]models.AIModel(nil), c.models...)
}

// Available returns the models clients may select
func (c *Catalog) Available() []models.AIModel {
	out := make([]models.AIModel, 0, len(c.models))
	for _, m := range c.models {
		if m.IsAvailable {
			out = append(out, m)
		}
	}
	return out
}

// Find looks up a model by id
func (c *Catalog) Find(id string) (models.AIModel, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return models.AIModel{}, false
}
