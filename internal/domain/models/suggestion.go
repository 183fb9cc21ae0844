package models

// SuggestionPriority flags how urgently a suggestion should be surfaced.
// It is display metadata only; it never affects suggestion ordering.
type SuggestionPriority string

const (
	PriorityHigh   SuggestionPriority = "high"
	PriorityMedium SuggestionPriority = "medium"
)

// ImpactEntry is one labelled, pre-formatted figure attached to a suggestion.
// Entries keep the order the advisory rule emitted them in.
type ImpactEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Suggestion is a single threshold-triggered optimization proposal. The list
// of suggestions is regenerated wholesale on every metrics change.
type Suggestion struct {
	Priority SuggestionPriority `json:"priority"`
	Category string             `json:"category"`
	Action   string             `json:"action"`
	Impact   []ImpactEntry      `json:"impact,omitempty"`
}
