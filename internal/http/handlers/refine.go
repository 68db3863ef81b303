package handlers

import (
	"encoding/json"
	"net/http"

	"promptstudio/internal/domain/promptspec"
	"promptstudio/internal/providers/advisor"
	"promptstudio/internal/sqlinline"
)

type refineRequest struct {
	TargetModel string          `json:"target_model"`
	Spec        promptspec.Spec `json:"spec"`
}

type refineResponse struct {
	Title    string            `json:"title"`
	Prompt   string            `json:"prompt"`
	Tags     []string          `json:"tags"`
	Provider string            `json:"provider"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Refine turns a structured prompt spec into one polished prompt.
func (a *App) Refine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Spec.Normalize()
	if err := req.Spec.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	res, err := a.Advisor.Refine(r.Context(), advisor.RefineRequest{
		Spec:        req.Spec,
		TargetModel: req.TargetModel,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("refine: advisor failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "prompt advisor unavailable")
		return
	}

	if a.SQL != nil {
		props := promptspec.MustMarshal(map[string]any{"target_model": req.TargetModel})
		if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertUsageEvent, "refine", res.Provider, props); err != nil {
			a.Logger.Warn().Err(err).Msg("refine: failed to record usage event")
		}
	}

	a.json(w, http.StatusOK, refineResponse{
		Title:    res.Title,
		Prompt:   res.Prompt,
		Tags:     res.Tags,
		Provider: res.Provider,
		Metadata: res.Metadata,
	})
}
