package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBuiltinPacks(t *testing.T) {
	t.Parallel()
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	models := reg.Models()
	want := []string{"nano-banana", "seeddance", "seedream"}
	if len(models) != len(want) {
		t.Fatalf("Models = %v, want %v", models, want)
	}
	for i := range want {
		if models[i] != want[i] {
			t.Fatalf("Models = %v, want %v", models, want)
		}
	}
	pack := reg.ForModel("seedream")
	if pack.Model != "seedream" {
		t.Fatalf("ForModel returned pack for %q", pack.Model)
	}
	if strings.TrimSpace(pack.System) == "" {
		t.Fatal("builtin pack has empty system template")
	}
	if len(pack.Keywords) == 0 {
		t.Fatal("builtin pack has no keywords")
	}
}

func TestForModelFallsBackToDefault(t *testing.T) {
	t.Parallel()
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	pack := reg.ForModel("does-not-exist")
	if pack.Model != reg.DefaultModel() {
		t.Fatalf("fallback pack = %q, want default %q", pack.Model, reg.DefaultModel())
	}
}

func TestLoadOverlayReplacesBuiltin(t *testing.T) {
	dir := t.TempDir()
	overlay := `[[pack]]
name = "Custom Seedream"
model = "seedream"
system = "custom system"
batch_prompt = "give me {count} about {subject}, skip {excluded}"
refine_prompt = "refine {subject}: {summary}"
keywords = ["paint"]
`
	if err := os.WriteFile(filepath.Join(dir, "seedream.toml"), []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	pack := reg.ForModel("seedream")
	if pack.Name != "Custom Seedream" {
		t.Fatalf("overlay not applied, pack name %q", pack.Name)
	}
}

func TestRenderBatch(t *testing.T) {
	t.Parallel()
	pack := Pack{BatchPrompt: "give me {count} prompts about {subject}; avoid {excluded}"}
	got := pack.RenderBatch(4, "old harbors", []string{"Night", "Storm"})
	want := "give me 4 prompts about old harbors; avoid Night, Storm"
	if got != want {
		t.Fatalf("RenderBatch = %q, want %q", got, want)
	}
}

func TestRenderRefine(t *testing.T) {
	t.Parallel()
	pack := Pack{RefinePrompt: "refine {subject} ({summary})"}
	got := pack.RenderRefine("a red fox", "a red fox, style: ink")
	want := "refine a red fox (a red fox, style: ink)"
	if got != want {
		t.Fatalf("RenderRefine = %q, want %q", got, want)
	}
}
