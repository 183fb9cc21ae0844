package models

import "time"

// MessageKind classifies entries in the session message log.
type MessageKind string

const (
	MessageWelcome MessageKind = "welcome"
	MessageUser    MessageKind = "user"
	MessageSystem  MessageKind = "system"
	MessageAlert   MessageKind = "alert"
	MessageError   MessageKind = "error"
	MessageHelp    MessageKind = "help"
)

// MetricReading is a labelled, display-formatted metric value used in
// structured responses such as the efficiency analysis view.
type MetricReading struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Message is one entry of the append-only session log. Chronological order
// is the only invariant; entries are never reordered or deduplicated.
// Text is always set; the structured fields accompany it when a response
// carries more than prose.
type Message struct {
	Kind        MessageKind     `json:"kind"`
	Text        string          `json:"text"`
	Trend       []TrendPoint    `json:"trend,omitempty"`
	Metrics     []MetricReading `json:"metrics,omitempty"`
	Suggestions []Suggestion    `json:"suggestions,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}
