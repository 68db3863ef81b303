package advisor

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"promptstudio/internal/domain/promptspec"
	"promptstudio/internal/templates"
)

// RefineRequest asks an advisor to polish one structured prompt spec into a
// single finished prompt for the target model.
type RefineRequest struct {
	Spec        promptspec.Spec
	TargetModel string
}

// RefineResponse is the parsed advisor output.
type RefineResponse struct {
	Title    string            `json:"title"`
	Prompt   string            `json:"prompt"`
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Provider string            `json:"-"`
}

// BatchRequest asks an advisor for one batch of prompt examples. The raw
// response text goes through the collector's extraction cascade; advisors do
// not parse it themselves.
type BatchRequest struct {
	Spec           promptspec.Spec
	TargetModel    string
	BatchSize      int
	ExcludedLabels []string
}

// Advisor is the LLM-provider contract. SuggestBatch must represent vendor
// refusals as ordinary response text, reserving errors for genuine transport
// faults; the collector depends on that distinction.
type Advisor interface {
	Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error)
	SuggestBatch(ctx context.Context, req BatchRequest) (string, error)
}

// StaticAdvisor produces deterministic canned output. It keeps the studio
// usable with no LLM credentials and serves as the fallback of last resort.
type StaticAdvisor struct {
	registry *templates.Registry
}

func NewStaticAdvisor(registry *templates.Registry) *StaticAdvisor {
	return &StaticAdvisor{registry: registry}
}

func (s *StaticAdvisor) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	c := cases.Title(language.Und)
	subject := strings.TrimSpace(req.Spec.Subject)
	if subject == "" {
		subject = "untitled scene"
	}
	prompt := req.Spec.Summary()
	if prompt == "" {
		prompt = subject
	}
	res := &RefineResponse{
		Title:    c.String(subject),
		Prompt:   prompt,
		Tags:     []string{"draft"},
		Metadata: map[string]string{"target_model": s.targetModel(req.TargetModel)},
		Provider: staticProviderName,
	}
	return res, nil
}

var staticAngles = []struct {
	label string
	body  string
}{
	{"Close-up", "a tight close-up on %s, shallow depth of field, soft window light"},
	{"Wide Shot", "a wide establishing shot of %s, layered foreground and background"},
	{"Golden Hour", "%s at golden hour, long warm shadows, gentle haze"},
	{"Overcast", "%s under a flat overcast sky, muted palette, even light"},
	{"Night", "%s at night, practical lights only, deep shadows"},
	{"Overhead", "an overhead view of %s, graphic composition, centered"},
}

func (s *StaticAdvisor) SuggestBatch(ctx context.Context, req BatchRequest) (string, error) {
	subject := strings.TrimSpace(req.Spec.Subject)
	if subject == "" {
		subject = "the scene"
	}
	used := make(map[string]struct{}, len(req.ExcludedLabels))
	for _, label := range req.ExcludedLabels {
		used[strings.ToLower(label)] = struct{}{}
	}
	sb := &strings.Builder{}
	n := 0
	for _, angle := range staticAngles {
		if n >= req.BatchSize {
			break
		}
		if _, ok := used[strings.ToLower(angle.label)]; ok {
			continue
		}
		n++
		fmt.Fprintf(sb, "CATEGORY: %s\nEXAMPLE %d: %s\n\n", angle.label, n, fmt.Sprintf(angle.body, subject))
	}
	return sb.String(), nil
}

func (s *StaticAdvisor) targetModel(model string) string {
	if s.registry != nil {
		return s.registry.ForModel(model).Model
	}
	return strings.TrimSpace(strings.ToLower(model))
}

var _ Advisor = (*StaticAdvisor)(nil)
