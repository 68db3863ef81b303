package handlers

import (
	"encoding/json"
	"net/http"

	"promptstudio/internal/infra"
	"promptstudio/internal/providers/advisor"
	"promptstudio/internal/providers/image"
	"promptstudio/internal/providers/video"
	"promptstudio/internal/storage"
	"promptstudio/internal/templates"
)

// App bundles the dependencies shared by every HTTP handler.
type App struct {
	SQL            infra.SQLExecutor
	Config         *infra.Config
	Logger         *infra.Logger
	Advisor        advisor.Advisor
	Suggester      *advisor.Suggester
	Registry       *templates.Registry
	Store          *storage.FileStore
	ImageProviders map[string]image.Generator
	VideoProviders map[string]video.Generator
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorBody{Error: kind, Message: message})
}
