package config

import (
	"fmt"
	"os"

	"github.com/upb/llm-orchestrator/models"
	"gopkg.in/yaml.v3"
)

// LoadCatalog returns the built-in catalog when path is empty, otherwise the
// catalog read from the YAML file at path. Environment variables in the file
// are expanded before parsing. Sections missing from the file keep their
// built-in values.
func LoadCatalog(path string) (*models.Catalog, error) {
	if path == "" {
		return models.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog document
func ParseCatalog(data []byte) (*models.Catalog, error) {
	expanded := os.ExpandEnv(string(data))

	var file models.Catalog
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	catalog := models.DefaultCatalog()
	if len(file.Models) > 0 {
		catalog.Models = file.Models
	}
	if len(file.Intents) > 0 {
		catalog.Intents = file.Intents
	}
	if file.DefaultModel != "" {
		catalog.DefaultModel = file.DefaultModel
	}
	catalog.Normalize()

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}
