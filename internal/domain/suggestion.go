package domain

import "time"

// Suggestion is one discrete prompt idea recovered from an advisor batch.
type Suggestion struct {
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

// SuggestionRun records the outcome of one collection run for history and
// diagnostics: how many items were requested versus actually produced.
type SuggestionRun struct {
	ID           string
	TargetModel  string
	Provider     string
	Requested    int
	Collected    int
	Attempts     int
	FallbackUsed bool
	Items        []Suggestion
	CreatedAt    time.Time
}
