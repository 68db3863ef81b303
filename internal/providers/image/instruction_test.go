package image

import (
	"strings"
	"testing"

	"promptstudio/internal/domain/promptspec"
)

func TestBuildInstruction(t *testing.T) {
	spec := promptspec.Spec{
		Subject:    "a weathered fishing boat",
		Scene:      "a misty harbor at dawn",
		Style:      "documentary photography",
		Lighting:   "soft diffuse light",
		Mood:       "quiet",
		Negative:   "crowds",
		References: []string{"harbor-01.jpg", "  ", "harbor-02.jpg"},
	}
	got := BuildInstruction(spec)

	for _, want := range []string{
		"Create an image of a weathered fishing boat.",
		"Setting: a misty harbor at dawn.",
		`style "documentary photography"`,
		`lighting "soft diffuse light"`,
		"Reference inspiration: harbor-01.jpg; harbor-02.jpg.",
		"Avoid: crowds.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("instruction missing %q:\n%s", want, got)
		}
	}

	if BuildInstruction(spec) != got {
		t.Fatal("instruction must be deterministic")
	}
}

func TestBuildInstructionEmptySpec(t *testing.T) {
	got := BuildInstruction(promptspec.Spec{})
	if !strings.Contains(got, "the described scene") {
		t.Fatalf("unexpected instruction: %q", got)
	}
}

func TestNegativeFor(t *testing.T) {
	if got := NegativeFor(promptspec.Spec{}); got != DefaultNegativePrompt {
		t.Fatalf("default negative = %q", got)
	}
	got := NegativeFor(promptspec.Spec{Negative: "text overlays"})
	if !strings.HasPrefix(got, "text overlays, ") || !strings.Contains(got, "watermark") {
		t.Fatalf("merged negative = %q", got)
	}
}
