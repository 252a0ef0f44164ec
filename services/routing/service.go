package routing

import (
	"sort"

	"github.com/upb/llm-orchestrator/models"
	"go.uber.org/zap"
)

// DefaultMaxFallbacks bounds the fallback chain when no limit is given
const DefaultMaxFallbacks = 3

// Preference defines how candidates are ordered before selection
type Preference string

const (
	// PreferenceCost puts the cheapest model first
	PreferenceCost Preference = "cost"

	// PreferenceSpeed puts the fastest speed tier first
	PreferenceSpeed Preference = "speed"

	// PreferenceQuality puts the highest quality tier first
	PreferenceQuality Preference = "quality"

	// PreferenceBalanced keeps the intent's configured priority order
	PreferenceBalanced Preference = "balanced"
)

// Selection is a routed (provider, model) pair
type Selection struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// CooldownChecker reports whether a model is suspended
type CooldownChecker interface {
	IsOnCooldown(modelKey string) bool
}

// Router picks a model for an intent from the catalog, skipping cooled models.
// It keeps no state of its own; results depend only on the catalog and the
// cooldown state observed at call time.
type Router struct {
	catalog   *models.Catalog
	cooldowns CooldownChecker
	logger    *zap.Logger
}

// NewRouter creates a router over catalog
func NewRouter(catalog *models.Catalog, cooldowns CooldownChecker, logger *zap.Logger) *Router {
	if catalog == nil {
		catalog = models.DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		catalog:   catalog,
		cooldowns: cooldowns,
		logger:    logger,
	}
}

// SelectModel returns the best available model for intent. The second return
// value is false when every candidate is excluded or on cooldown.
func (r *Router) SelectModel(intent string, preference Preference, excluded ...string) (Selection, bool) {
	available := r.available(r.catalog.Candidates(intent), excluded...)
	if len(available) == 0 {
		r.logger.Warn("no models available for intent",
			zap.String("intent", intent),
			zap.Strings("excluded", excluded))
		return Selection{}, false
	}

	r.order(available, preference)

	chosen := available[0]
	return Selection{Provider: r.catalog.Models[chosen].Provider, Model: chosen}, true
}

// FallbackChain returns the backup models for intent in configured priority
// order, excluding failedModel and any model on cooldown. At most
// maxFallbacks entries are returned; a negative limit uses DefaultMaxFallbacks.
func (r *Router) FallbackChain(intent, failedModel string, maxFallbacks int) []Selection {
	if maxFallbacks < 0 {
		maxFallbacks = DefaultMaxFallbacks
	}

	available := r.available(r.catalog.Candidates(intent), failedModel)
	if len(available) > maxFallbacks {
		available = available[:maxFallbacks]
	}

	chain := make([]Selection, 0, len(available))
	for _, name := range available {
		chain = append(chain, Selection{Provider: r.catalog.Models[name].Provider, Model: name})
	}
	return chain
}

// IsModelAvailable reports whether model is not on cooldown
func (r *Router) IsModelAvailable(model string) bool {
	if r.cooldowns == nil {
		return true
	}
	return !r.cooldowns.IsOnCooldown(model)
}

// ModelInfo returns the catalog descriptor for model
func (r *Router) ModelInfo(model string) (models.ModelDescriptor, bool) {
	m, ok := r.catalog.Models[model]
	return m, ok
}

// Candidates returns the configured candidates for intent, ignoring cooldowns
func (r *Router) Candidates(intent string) []string {
	return r.catalog.Candidates(intent)
}

// Catalog returns the catalog the router was built with
func (r *Router) Catalog() *models.Catalog {
	return r.catalog
}

func (r *Router) available(candidates []string, excluded ...string) []string {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	out := candidates[:0]
	for _, name := range candidates {
		if _, ok := skip[name]; ok {
			continue
		}
		if _, known := r.catalog.Models[name]; !known {
			continue
		}
		if !r.IsModelAvailable(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func (r *Router) order(names []string, preference Preference) {
	var less func(a, b models.ModelDescriptor) bool

	switch preference {
	case PreferenceCost:
		less = func(a, b models.ModelDescriptor) bool { return a.CostPer1K < b.CostPer1K }
	case PreferenceSpeed:
		less = func(a, b models.ModelDescriptor) bool { return a.Speed.Rank() < b.Speed.Rank() }
	case PreferenceQuality:
		less = func(a, b models.ModelDescriptor) bool { return a.Quality.Rank() < b.Quality.Rank() }
	default:
		return
	}

	sort.SliceStable(names, func(i, j int) bool {
		return less(r.catalog.Models[names[i]], r.catalog.Models[names[j]])
	})
}
