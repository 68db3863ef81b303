package image

import (
	"fmt"
	"strings"

	"promptstudio/internal/domain/promptspec"
)

// DefaultNegativePrompt captures artefacts every provider should avoid.
const DefaultNegativePrompt = "low quality, blurry, distorted, washed out, incorrect anatomy, extra limbs, text artefacts, watermark"

// BuildInstruction converts a structured prompt spec into the natural language
// instruction sent to the model. Field order is stable so identical specs
// produce identical prompts.
func BuildInstruction(spec promptspec.Spec) string {
	var lines []string

	subject := strings.TrimSpace(spec.Subject)
	if subject == "" {
		subject = "the described scene"
	}
	lines = append(lines, fmt.Sprintf("Create an image of %s.", subject))

	if scene := strings.TrimSpace(spec.Scene); scene != "" {
		lines = append(lines, fmt.Sprintf("Setting: %s.", scene))
	}

	var direction []string
	if style := strings.TrimSpace(spec.Style); style != "" {
		direction = append(direction, fmt.Sprintf("style %q", style))
	}
	if lighting := strings.TrimSpace(spec.Lighting); lighting != "" {
		direction = append(direction, fmt.Sprintf("lighting %q", lighting))
	}
	if mood := strings.TrimSpace(spec.Mood); mood != "" {
		direction = append(direction, fmt.Sprintf("mood %q", mood))
	}
	if len(direction) > 0 {
		lines = append(lines, "Visual direction: "+strings.Join(direction, ", ")+".")
	}

	if len(spec.References) > 0 {
		refs := make([]string, 0, len(spec.References))
		for _, ref := range spec.References {
			if ref = strings.TrimSpace(ref); ref != "" {
				refs = append(refs, ref)
			}
		}
		if len(refs) > 0 {
			lines = append(lines, "Reference inspiration: "+strings.Join(refs, "; ")+".")
		}
	}

	if negative := strings.TrimSpace(spec.Negative); negative != "" {
		lines = append(lines, fmt.Sprintf("Avoid: %s.", negative))
	}

	return strings.Join(lines, "\n")
}

// NegativeFor merges the spec's own exclusions with the defaults.
func NegativeFor(spec promptspec.Spec) string {
	negative := strings.TrimSpace(spec.Negative)
	if negative == "" {
		return DefaultNegativePrompt
	}
	return negative + ", " + DefaultNegativePrompt
}
