package inference

import (
	"sort"
	"strings"

	"github.com/upb/llm-orchestrator/services/usage"
)

// ModelStats is the usage snapshot of one model
type ModelStats struct {
	Model                    string `json:"model"`
	TotalTokens              int    `json:"total_tokens"`
	LastHourTokens           int    `json:"last_hour_tokens"`
	OnCooldown               bool   `json:"on_cooldown"`
	CooldownRemainingSeconds int    `json:"cooldown_remaining_seconds"`
}

// SystemStats is the usage and cooldown snapshot served by /stats
type SystemStats struct {
	// TotalRequests is the sum of lifetime token totals over every tracked
	// key, provider aggregates included
	TotalRequests    int            `json:"total_requests"`
	Models           []ModelStats   `json:"models"`
	ActiveCooldowns  map[string]int `json:"active_cooldowns"`
	CooldownTriggers map[string]int `json:"cooldown_triggers"`
}

// Stats reports per-model usage and active cooldowns. Models are sorted by name.
func (s *InferenceService) Stats() SystemStats {
	all := s.tracker.AllUsage()

	stats := SystemStats{
		Models:           make([]ModelStats, 0, len(all)),
		ActiveCooldowns:  s.cooldowns.All(),
		CooldownTriggers: s.cooldowns.Statistics(),
	}

	for key, total := range all {
		stats.TotalRequests += total
		if strings.HasPrefix(key, usage.ProviderKeyPrefix) {
			continue
		}
		stats.Models = append(stats.Models, ModelStats{
			Model:                    key,
			TotalTokens:              total,
			LastHourTokens:           s.tracker.UsageLastHour(key),
			OnCooldown:               s.cooldowns.IsOnCooldown(key),
			CooldownRemainingSeconds: s.cooldowns.RemainingSeconds(key),
		})
	}

	sort.Slice(stats.Models, func(i, j int) bool {
		return stats.Models[i].Model < stats.Models[j].Model
	})
	return stats
}

// Reset clears all usage samples and cooldowns
func (s *InferenceService) Reset() {
	s.tracker.ResetAll()
	s.cooldowns.ClearAll()
	s.logger.Info("usage and cooldown state reset")
}

// ProvidersAvailable reports how many generators are registered
func (s *InferenceService) ProvidersAvailable() int {
	return s.registry.Count()
}
