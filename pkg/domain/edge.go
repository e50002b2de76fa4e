package domain

import "strings"

// ConditionType tags the rule attached to an edge.
type ConditionType string

const (
	// ConditionAuto is always satisfied; traversal needs no comparison.
	ConditionAuto ConditionType = "auto"
	// ConditionDecision is satisfied when the traversal selects this
	// edge's labeled branch.
	ConditionDecision ConditionType = "decision"
	// ConditionQuestion is satisfied when the user reply contains any of
	// the edge's keywords (case-insensitive substring).
	ConditionQuestion ConditionType = "question"
)

// Condition is the tagged rule determining whether traversal may use an
// edge. ChoiceKey applies to decision conditions, Keywords to question
// conditions.
type Condition struct {
	Type      ConditionType `json:"type"`
	ChoiceKey string        `json:"choiceKey,omitempty"`
	Keywords  []string      `json:"keywords,omitempty"`
}

// Matches reports whether the user input satisfies this condition.
// Auto conditions never match on input; they are the traversal fallback.
func (c Condition) Matches(input string) bool {
	switch c.Type {
	case ConditionQuestion:
		lowered := strings.ToLower(input)
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return true
			}
		}
	case ConditionDecision:
		return c.ChoiceKey != "" && strings.EqualFold(strings.TrimSpace(input), c.ChoiceKey)
	}
	return false
}

// Edge is a directed connection between two node ids.
type Edge struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Label     string    `json:"label,omitempty"`
	Condition Condition `json:"condition"`
	// Comment is a free-text annotation with no runtime effect.
	Comment string `json:"comment,omitempty"`
}
