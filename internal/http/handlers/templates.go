package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Templates lists the template packs available for suggestion and refinement.
func (a *App) Templates(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"models":  a.Registry.Models(),
		"default": a.Registry.DefaultModel(),
	})
}

// Template returns the pack backing one target model, falling back to the
// default pack for unknown models the same way the pipeline does.
func (a *App) Template(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	pack := a.Registry.ForModel(model)
	a.json(w, http.StatusOK, map[string]any{
		"name":            pack.Name,
		"model":           pack.Model,
		"keywords":        pack.Keywords,
		"refusal_phrases": pack.RefusalPhrases,
	})
}
