package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"promptstudio/internal/http/handlers"
	"promptstudio/internal/middleware"
)

// NewRouter assembles the public API surface.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
	)
	if app.Logger != nil {
		r.Use(middleware.Logger(*app.Logger))
	}
	if app.Config != nil {
		if len(app.Config.AllowedOrigins) > 0 {
			r.Use(middleware.CORS(app.Config.AllowedOrigins))
		}
		if app.Config.RateLimitPerMin > 0 {
			limiter := middleware.NewRateLimiter(app.Config.RateLimitPerMin, time.Minute)
			r.Use(limiter.Middleware)
		}
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/suggestions", func(r chi.Router) {
		r.Post("/", app.Suggest)
		r.Get("/runs", app.SuggestionRuns)
	})

	r.Post("/v1/refine", app.Refine)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.EnqueueJob)
		r.Get("/{job_id}", app.JobStatus)
		r.Get("/{job_id}/assets", app.JobAssets)
		r.Get("/{job_id}/download", app.JobDownload)
	})

	r.Get("/v1/assets/{asset_id}/download", app.DownloadAsset)

	r.Get("/v1/usage", app.UsageSummary)

	r.Route("/v1/templates", func(r chi.Router) {
		r.Get("/", app.Templates)
		r.Get("/{model}", app.Template)
	})

	if app.Store != nil {
		fileServer := http.StripPrefix("/assets/", http.FileServer(http.Dir(app.Store.BasePath())))
		r.Get("/assets/*", fileServer.ServeHTTP)
	}

	return r
}
