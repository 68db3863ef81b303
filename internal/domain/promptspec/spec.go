package promptspec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtrasConfig carries optional knobs that do not affect prompt content.
type ExtrasConfig struct {
	Locale  string `json:"locale"`
	Quality string `json:"quality"`
}

// Spec is the structured state of the prompt box: what the user wants to see,
// decomposed into the fields the advisors and image providers understand.
type Spec struct {
	Version     string       `json:"version"`
	Subject     string       `json:"subject"`
	Scene       string       `json:"scene"`
	Style       string       `json:"style"`
	Lighting    string       `json:"lighting"`
	Mood        string       `json:"mood"`
	Negative    string       `json:"negative"`
	AspectRatio string       `json:"aspect_ratio"`
	Quantity    int          `json:"quantity"`
	References  []string     `json:"references"`
	Extras      ExtrasConfig `json:"extras"`
}

var allowedAspectRatios = map[string]struct{}{
	"1:1":  {},
	"4:3":  {},
	"3:4":  {},
	"16:9": {},
	"9:16": {},
}

const (
	// DefaultVersion represents the schema version persisted for prompt specs.
	DefaultVersion = "2025-06"
	// DefaultAspectRatio is used when the request omits the aspect ratio.
	DefaultAspectRatio = "1:1"
	// DefaultQuantity is the minimum quantity for generated assets.
	DefaultQuantity = 1
	// MaxQuantity caps how many assets one job may produce.
	MaxQuantity = 4
	// DefaultExtrasLocale is applied when no locale preference is provided.
	DefaultExtrasLocale = "en"
	// DefaultExtrasQuality represents the baseline generation quality.
	DefaultExtrasQuality = "standard"
)

// Normalize ensures the spec respects server defaults and limits.
func (s *Spec) Normalize() {
	if s == nil {
		return
	}
	if s.Version == "" {
		s.Version = DefaultVersion
	}
	if s.Quantity <= 0 {
		s.Quantity = DefaultQuantity
	}
	if s.Quantity > MaxQuantity {
		s.Quantity = MaxQuantity
	}
	if s.AspectRatio == "" {
		s.AspectRatio = DefaultAspectRatio
	}
	if s.Extras.Locale == "" {
		s.Extras.Locale = DefaultExtrasLocale
	}
	if s.Extras.Quality == "" {
		s.Extras.Quality = DefaultExtrasQuality
	}
}

// Validate ensures the spec satisfies the required contract before persistence
// or being handed to an advisor.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if s.Quantity < 1 || s.Quantity > MaxQuantity {
		return fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)
	}
	if _, ok := allowedAspectRatios[s.AspectRatio]; !ok {
		return fmt.Errorf("aspect_ratio must be one of 1:1, 4:3, 3:4, 16:9, 9:16")
	}
	return nil
}

// Summary flattens the populated fields into a single descriptive line used
// when an advisor or provider wants plain text rather than the structured form.
func (s Spec) Summary() string {
	parts := make([]string, 0, 5)
	for _, field := range []struct{ label, value string }{
		{"", s.Subject},
		{"scene", s.Scene},
		{"style", s.Style},
		{"lighting", s.Lighting},
		{"mood", s.Mood},
	} {
		v := strings.TrimSpace(field.value)
		if v == "" {
			continue
		}
		if field.label == "" {
			parts = append(parts, v)
			continue
		}
		parts = append(parts, field.label+": "+v)
	}
	return strings.Join(parts, ", ")
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
