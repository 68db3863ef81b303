package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed packs/*.toml
var builtinFS embed.FS

// Pack bundles the static prompt assets for one target image/video model:
// the system template sent to the advisor, the per-operation instruction
// templates, and the collector tuning that was calibrated for this model.
type Pack struct {
	Name           string   `toml:"name"`
	Model          string   `toml:"model"`
	System         string   `toml:"system"`
	BatchPrompt    string   `toml:"batch_prompt"`
	RefinePrompt   string   `toml:"refine_prompt"`
	Keywords       []string `toml:"keywords"`
	RefusalPhrases []string `toml:"refusal_phrases"`
}

type packFile struct {
	Packs []Pack `toml:"pack"`
}

// Registry holds the loaded packs keyed by target model identifier.
type Registry struct {
	packs        map[string]Pack
	defaultModel string
}

// ErrNoPacks indicates that neither the builtin assets nor the overlay
// directory produced a usable pack.
var ErrNoPacks = errors.New("templates: no packs loaded")

// Load reads the embedded builtin packs and then overlays any *.toml files
// found in dir (which may be empty). Overlay packs replace builtin packs for
// the same model, so deployments can retune prompts without rebuilding.
func Load(dir string) (*Registry, error) {
	reg := &Registry{packs: make(map[string]Pack)}

	if err := reg.loadFS(builtinFS, "packs"); err != nil {
		return nil, fmt.Errorf("templates: builtin packs: %w", err)
	}

	if dir = strings.TrimSpace(dir); dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("templates: read overlay dir: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("templates: read %s: %w", entry.Name(), err)
			}
			if err := reg.addFile(data); err != nil {
				return nil, fmt.Errorf("templates: parse %s: %w", entry.Name(), err)
			}
		}
	}

	if len(reg.packs) == 0 {
		return nil, ErrNoPacks
	}
	if _, ok := reg.packs[reg.defaultModel]; !ok {
		models := reg.Models()
		reg.defaultModel = models[0]
	}
	return reg, nil
}

func (r *Registry) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		data, err := fs.ReadFile(fsys, root+"/"+entry.Name())
		if err != nil {
			return err
		}
		if err := r.addFile(data); err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (r *Registry) addFile(data []byte) error {
	var file packFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return err
	}
	for _, pack := range file.Packs {
		model := strings.TrimSpace(strings.ToLower(pack.Model))
		if model == "" {
			return errors.New("pack is missing a model identifier")
		}
		pack.Model = model
		r.packs[model] = pack
		if r.defaultModel == "" {
			r.defaultModel = model
		}
	}
	return nil
}

// ForModel returns the pack for the given target model, falling back to the
// default pack for unknown models.
func (r *Registry) ForModel(model string) Pack {
	model = strings.TrimSpace(strings.ToLower(model))
	if pack, ok := r.packs[model]; ok {
		return pack
	}
	return r.packs[r.defaultModel]
}

// DefaultModel reports which model ForModel falls back to.
func (r *Registry) DefaultModel() string {
	return r.defaultModel
}

// Models lists the loaded target models in stable order.
func (r *Registry) Models() []string {
	models := make([]string, 0, len(r.packs))
	for model := range r.packs {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// RenderBatch fills the batch instruction template. Placeholders: {count},
// {subject}, {excluded} (comma-separated labels already used, possibly empty).
func (p Pack) RenderBatch(count int, subject string, excluded []string) string {
	return strings.NewReplacer(
		"{count}", strconv.Itoa(count),
		"{subject}", subject,
		"{excluded}", strings.Join(excluded, ", "),
	).Replace(p.BatchPrompt)
}

// RenderRefine fills the refine instruction template. Placeholders: {subject},
// {summary} (the flattened spec description).
func (p Pack) RenderRefine(subject, summary string) string {
	return strings.NewReplacer(
		"{subject}", subject,
		"{summary}", summary,
	).Replace(p.RefinePrompt)
}
