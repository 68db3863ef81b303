package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"promptstudio/internal/domain"
	"promptstudio/internal/domain/promptspec"
	"promptstudio/internal/providers/advisor"
	"promptstudio/internal/sqlinline"
)

type suggestRequest struct {
	TargetModel string          `json:"target_model"`
	Count       int             `json:"count"`
	Spec        promptspec.Spec `json:"spec"`
}

type suggestionItem struct {
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

type suggestResponse struct {
	RunID        string           `json:"run_id"`
	TargetModel  string           `json:"target_model"`
	Provider     string           `json:"provider"`
	Requested    int              `json:"requested"`
	Collected    int              `json:"collected"`
	Attempts     int              `json:"attempts"`
	FallbackUsed bool             `json:"fallback_used"`
	Items        []suggestionItem `json:"items"`
}

const maxSuggestionCount = 30

// Suggest collects prompt suggestions for one subject and target model. A
// partial list is returned with 200; only advisor transport faults map to 502.
func (a *App) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Count <= 0 {
		req.Count = 10
	}
	if req.Count > maxSuggestionCount {
		req.Count = maxSuggestionCount
	}
	req.Spec.Normalize()
	if req.Spec.Subject == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "spec.subject is required")
		return
	}

	run, err := a.Suggester.Suggest(r.Context(), advisor.SuggestRequest{
		Spec:        req.Spec,
		TargetModel: req.TargetModel,
		Count:       req.Count,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("suggestions: collection failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "suggestion provider unavailable")
		return
	}

	a.json(w, http.StatusOK, toSuggestResponse(run))
}

// SuggestionRuns lists recent collection runs with their hit rates.
func (a *App) SuggestionRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	rows, err := a.SQL.Query(r.Context(), sqlinline.QListSuggestionRuns, limit)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to list suggestion runs")
		return
	}
	defer rows.Close()

	runs := []map[string]any{}
	for rows.Next() {
		var id, targetModel, provider string
		var requested, collected, attempts int
		var fallbackUsed bool
		var createdAt time.Time
		if err := rows.Scan(&id, &targetModel, &provider, &requested, &collected, &attempts, &fallbackUsed, &createdAt); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to scan suggestion run")
			return
		}
		runs = append(runs, map[string]any{
			"id":            id,
			"target_model":  targetModel,
			"provider":      provider,
			"requested":     requested,
			"collected":     collected,
			"attempts":      attempts,
			"fallback_used": fallbackUsed,
			"created_at":    createdAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"runs": runs})
}

func toSuggestResponse(run *domain.SuggestionRun) suggestResponse {
	items := make([]suggestionItem, 0, len(run.Items))
	for _, item := range run.Items {
		items = append(items, suggestionItem{Label: item.Label, Text: item.Text})
	}
	return suggestResponse{
		RunID:        run.ID,
		TargetModel:  run.TargetModel,
		Provider:     run.Provider,
		Requested:    run.Requested,
		Collected:    run.Collected,
		Attempts:     run.Attempts,
		FallbackUsed: run.FallbackUsed,
		Items:        items,
	}
}
