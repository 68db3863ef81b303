package handlers

import (
	"net/http"
	"strconv"

	"promptstudio/internal/sqlinline"
)

// UsageSummary aggregates recorded usage events per event type and provider
// over a trailing window of days (default 30).
func (a *App) UsageSummary(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QUsageSummary, days)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to summarize usage")
		return
	}
	defer rows.Close()

	events := []map[string]any{}
	for rows.Next() {
		var eventType, provider string
		var count int64
		if err := rows.Scan(&eventType, &provider, &count); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to scan usage row")
			return
		}
		events = append(events, map[string]any{
			"event_type": eventType,
			"provider":   provider,
			"events":     count,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"days": days, "events": events})
}
