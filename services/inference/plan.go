package inference

import "github.com/upb/llm-orchestrator/services/routing"

// RoutePlan is the routing decision for a prompt without calling any provider
type RoutePlan struct {
	Intent           string              `json:"intent"`
	IntentConfidence float64             `json:"intent_confidence"`
	Preference       routing.Preference  `json:"preference"`
	Candidates       []string            `json:"candidates"`
	Primary          *routing.Selection  `json:"primary"`
	Fallbacks        []routing.Selection `json:"fallbacks"`
}

// Plan classifies prompt (unless intent is given) and resolves the primary
// model and fallback chain against the current cooldown state.
func (s *InferenceService) Plan(prompt, intent string, preference routing.Preference) RoutePlan {
	if intent == "" {
		intent = s.classifier.Classify(prompt)
	}
	if preference == "" {
		preference = routing.PreferenceBalanced
	}

	plan := RoutePlan{
		Intent:           intent,
		IntentConfidence: s.classifier.Confidence(prompt, intent),
		Preference:       preference,
		Candidates:       s.router.Candidates(intent),
		Fallbacks:        []routing.Selection{},
	}

	primary, ok := s.router.SelectModel(intent, preference)
	if !ok {
		return plan
	}
	plan.Primary = &primary
	plan.Fallbacks = s.router.FallbackChain(intent, primary.Model, s.config.MaxFallbacks)
	return plan
}
