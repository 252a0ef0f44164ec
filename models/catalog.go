package models

import (
	"fmt"
	"sort"
)

// SpeedTier ranks how quickly a model responds
type SpeedTier string

const (
	SpeedVeryFast SpeedTier = "very_fast"
	SpeedFast     SpeedTier = "fast"
	SpeedMedium   SpeedTier = "medium"
	SpeedSlow     SpeedTier = "slow"
)

// Rank orders speed tiers fastest first; unknown tiers sort last
func (s SpeedTier) Rank() int {
	switch s {
	case SpeedVeryFast:
		return 0
	case SpeedFast:
		return 1
	case SpeedMedium:
		return 2
	case SpeedSlow:
		return 3
	default:
		return 99
	}
}

// QualityTier ranks output quality
type QualityTier string

const (
	QualityHigh   QualityTier = "high"
	QualityMedium QualityTier = "medium"
	QualityLow    QualityTier = "low"
)

// Rank orders quality tiers best first; unknown tiers sort last
func (q QualityTier) Rank() int {
	switch q {
	case QualityHigh:
		return 0
	case QualityMedium:
		return 1
	case QualityLow:
		return 2
	default:
		return 99
	}
}

// ModelDescriptor is the static description of a backend model
type ModelDescriptor struct {
	Name         string      `json:"name" yaml:"name"`
	Provider     string      `json:"provider" yaml:"provider"`
	CostPer1K    float64     `json:"cost_per_1k" yaml:"cost_per_1k"`
	Speed        SpeedTier   `json:"speed" yaml:"speed"`
	Quality      QualityTier `json:"quality" yaml:"quality"`
	Capabilities []string    `json:"capabilities" yaml:"capabilities"`
}

// Catalog is the immutable model table plus the intent routes.
// Intents maps an intent label to candidate model names in balanced
// priority order.
type Catalog struct {
	Models       map[string]ModelDescriptor `json:"models" yaml:"models"`
	Intents      map[string][]string        `json:"intents" yaml:"intents"`
	DefaultModel string                     `json:"default_model" yaml:"default_model"`
}

// DefaultModelName is used for intents with no configured route
const DefaultModelName = "gpt-3.5-turbo"

// DefaultCatalog returns the built-in model table and intent routes
func DefaultCatalog() *Catalog {
	return &Catalog{
		Models: map[string]ModelDescriptor{
			"gpt-4": {
				Name:         "gpt-4",
				Provider:     "openai",
				CostPer1K:    0.03,
				Speed:        SpeedSlow,
				Quality:      QualityHigh,
				Capabilities: []string{"code", "reasoning", "writing", "complex"},
			},
			"gpt-3.5-turbo": {
				Name:         "gpt-3.5-turbo",
				Provider:     "openai",
				CostPer1K:    0.001,
				Speed:        SpeedFast,
				Quality:      QualityMedium,
				Capabilities: []string{"general", "writing", "simple"},
			},
			"claude-sonnet-4": {
				Name:         "claude-sonnet-4",
				Provider:     "anthropic",
				CostPer1K:    0.015,
				Speed:        SpeedMedium,
				Quality:      QualityHigh,
				Capabilities: []string{"reasoning", "writing", "analysis"},
			},
			"claude-haiku-4": {
				Name:         "claude-haiku-4",
				Provider:     "anthropic",
				CostPer1K:    0.0008,
				Speed:        SpeedVeryFast,
				Quality:      QualityMedium,
				Capabilities: []string{"general", "simple", "fast"},
			},
		},
		Intents: map[string][]string{
			"code_generation": {"gpt-4", "gpt-3.5-turbo"},
			"education":       {"gpt-4", "claude-sonnet-4", "gpt-3.5-turbo"},
			"writing":         {"claude-sonnet-4", "gpt-4", "gpt-3.5-turbo"},
			"translation":     {"gpt-3.5-turbo", "claude-haiku-4"},
			"summarization":   {"claude-haiku-4", "gpt-3.5-turbo"},
			"general":         {"gpt-3.5-turbo", "claude-haiku-4"},
		},
		DefaultModel: DefaultModelName,
	}
}

// Normalize fills descriptor names from map keys and applies the default model
func (c *Catalog) Normalize() {
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModelName
	}
	for name, m := range c.Models {
		if m.Name == "" {
			m.Name = name
			c.Models[name] = m
		}
	}
}

// Validate checks that every route and the default model reference known models
func (c *Catalog) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("catalog has no models")
	}
	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q has no provider", name)
		}
		if m.Name != name {
			return fmt.Errorf("model key %q does not match descriptor name %q", name, m.Name)
		}
		if m.CostPer1K < 0 {
			return fmt.Errorf("model %q has negative cost", name)
		}
	}
	if _, ok := c.Models[c.DefaultModel]; !ok {
		return fmt.Errorf("default model %q is not in the catalog", c.DefaultModel)
	}
	for intent, candidates := range c.Intents {
		if len(candidates) == 0 {
			return fmt.Errorf("intent %q has no candidate models", intent)
		}
		for _, name := range candidates {
			if _, ok := c.Models[name]; !ok {
				return fmt.Errorf("intent %q references unknown model %q", intent, name)
			}
		}
	}
	return nil
}

// Candidates returns a copy of the configured candidates for intent, or the
// default model alone when the intent is unknown
func (c *Catalog) Candidates(intent string) []string {
	candidates, ok := c.Intents[intent]
	if !ok {
		return []string{c.DefaultModel}
	}
	out := make([]string, len(candidates))
	copy(out, candidates)
	return out
}

// Providers returns the distinct provider names referenced by the catalog
func (c *Catalog) Providers() []string {
	seen := make(map[string]struct{})
	for _, m := range c.Models {
		seen[m.Provider] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IntentNames returns the configured intent labels sorted
func (c *Catalog) IntentNames() []string {
	names := make([]string, 0, len(c.Intents))
	for name := range c.Intents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
