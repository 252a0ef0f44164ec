package intent

import "strings"

// General is returned when no keyword matches
const General = "general"

// Rule is an intent label with the substrings that vote for it
type Rule struct {
	Intent   string
	Keywords []string
}

// DefaultRules is the built-in keyword table. Order matters: on a score tie
// the earlier rule wins.
var DefaultRules = []Rule{
	{
		Intent: "code_generation",
		Keywords: []string{
			"code", "program", "function", "class", "script",
			"python", "javascript", "java", "implement", "debug",
			"algorithm", "refactor", "write code",
		},
	},
	{
		Intent: "education",
		Keywords: []string{
			"explain", "teach", "learn", "understand", "what is",
			"how does", "tutorial", "lesson", "clarify", "define",
		},
	},
	{
		Intent: "writing",
		Keywords: []string{
			"write", "email", "letter", "article", "essay",
			"blog", "post", "content", "draft", "compose",
		},
	},
	{
		Intent: "translation",
		Keywords: []string{
			"translate", "translation", "convert to", "in spanish",
			"in french", "in german", "language",
		},
	},
	{
		Intent: "summarization",
		Keywords: []string{
			"summarize", "summary", "tldr", "brief", "condense",
			"key points", "main idea", "overview",
		},
	},
}

// Classifier labels prompts by case-insensitive keyword matching
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over rules, or DefaultRules when none are given
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the intent with the most keyword hits in prompt, or
// General when nothing matches
func (c *Classifier) Classify(prompt string) string {
	lower := strings.ToLower(prompt)

	best, bestScore := General, 0
	for _, rule := range c.rules {
		if score := matches(lower, rule.Keywords); score > bestScore {
			best, bestScore = rule.Intent, score
		}
	}
	return best
}

// Confidence is the fraction of intent's keywords present in prompt.
// General always scores 0.5 and unknown intents score 0.
func (c *Classifier) Confidence(prompt, intent string) float64 {
	if intent == General {
		return 0.5
	}

	for _, rule := range c.rules {
		if rule.Intent != intent {
			continue
		}
		if len(rule.Keywords) == 0 {
			return 0
		}
		score := float64(matches(strings.ToLower(prompt), rule.Keywords)) / float64(len(rule.Keywords))
		if score > 1 {
			score = 1
		}
		return score
	}
	return 0
}

// Intents lists the labels the classifier can return, General last
func (c *Classifier) Intents() []string {
	labels := make([]string, 0, len(c.rules)+1)
	for _, rule := range c.rules {
		labels = append(labels, rule.Intent)
	}
	return append(labels, General)
}

func matches(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
