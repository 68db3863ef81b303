package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"promptstudio/internal/domain"
	"promptstudio/internal/domain/promptspec"
	"promptstudio/internal/infra"
	"promptstudio/internal/sqlinline"
	"promptstudio/pkg/zip"
)

type enqueueRequest struct {
	TaskType  string          `json:"task_type"`
	Provider  string          `json:"provider"`
	Spec      promptspec.Spec `json:"spec"`
	Prompt    string          `json:"prompt"`
	SourceURL string          `json:"source_url"`
	Duration  int             `json:"duration"`
}

type enqueueResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// EnqueueJob accepts an image or video generation request and queues it for
// the worker. The finished prompt may be supplied directly; otherwise the
// worker renders one from the spec.
func (a *App) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	taskType := domain.TaskType(req.TaskType)
	switch taskType {
	case domain.TaskTypeImageGen, domain.TaskTypeImageEdit, domain.TaskTypeVideoGen:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported task_type")
		return
	}

	if taskType == domain.TaskTypeVideoGen {
		if _, ok := a.VideoProviders[req.Provider]; !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "unsupported video provider")
			return
		}
		if req.SourceURL == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "source_url is required for video jobs")
			return
		}
	} else {
		if _, ok := a.ImageProviders[req.Provider]; !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "unsupported image provider")
			return
		}
		if taskType == domain.TaskTypeImageEdit && req.SourceURL == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "source_url is required for edit jobs")
			return
		}
	}

	req.Spec.Normalize()
	if req.Prompt == "" {
		if err := req.Spec.Validate(); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}

	promptJSON := promptspec.MustMarshal(req.Spec)
	properties := promptspec.MustMarshal(map[string]any{
		"prompt":     req.Prompt,
		"source_url": req.SourceURL,
		"duration":   req.Duration,
	})

	row := a.SQL.QueryRow(r.Context(), sqlinline.QEnqueueJob,
		string(taskType), promptJSON, req.Spec.Quantity, req.Spec.AspectRatio, req.Provider, properties)
	var jobID string
	if err := row.Scan(&jobID); err != nil {
		a.Logger.Error().Err(err).Msg("jobs: enqueue failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}
	a.json(w, http.StatusAccepted, enqueueResponse{JobID: jobID, Status: string(domain.JobStatusQueued)})
}

// JobStatus reports the current lifecycle state of one job.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}

	var (
		id, taskType, status, provider, aspect string
		quantity                               int
		errMsg                                 *string
		createdAt, updatedAt                   time.Time
	)
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectJobStatus, jobID)
	if err := row.Scan(&id, &taskType, &status, &provider, &quantity, &aspect, &errMsg, &createdAt, &updatedAt); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch job")
		return
	}

	body := map[string]any{
		"id":           id,
		"task_type":    taskType,
		"status":       status,
		"provider":     provider,
		"quantity":     quantity,
		"aspect_ratio": aspect,
		"created_at":   createdAt,
		"updated_at":   updatedAt,
	}
	if errMsg != nil {
		body["error"] = *errMsg
	}
	a.json(w, http.StatusOK, body)
}

// JobAssets lists the stored outputs of one job.
func (a *App) JobAssets(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	assets, err := a.loadJobAssets(r, jobID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch assets")
		return
	}
	items := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		items = append(items, map[string]any{
			"id":         asset.id,
			"kind":       asset.kind,
			"mime_type":  asset.mime,
			"byte_size":  asset.size,
			"url":        a.Store.URL(asset.storageKey),
			"created_at": asset.createdAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"job_id": jobID, "assets": items})
}

// JobDownload streams every output of one job as a zip archive.
func (a *App) JobDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	assets, err := a.loadJobAssets(r, jobID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch assets")
		return
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "job has no assets")
		return
	}

	entries := make([]zip.Asset, 0, len(assets))
	for _, asset := range assets {
		rc, err := a.Store.Open(r.Context(), asset.storageKey)
		if err != nil {
			a.Logger.Warn().Err(err).Str("asset_id", asset.id).Msg("jobs: asset missing from storage")
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		entries = append(entries, zip.Asset{
			Filename: path.Base(asset.storageKey),
			MIME:     asset.mime,
			Data:     data,
		})
	}

	blob, err := zip.Archive(entries)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".zip"))
	_, _ = w.Write(blob)
}

type assetRow struct {
	id         string
	kind       string
	storageKey string
	mime       string
	size       int64
	createdAt  time.Time
}

func (a *App) loadJobAssets(r *http.Request, jobID string) ([]assetRow, error) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectJobAssets, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []assetRow
	for rows.Next() {
		var row assetRow
		if err := rows.Scan(&row.id, &row.kind, &row.storageKey, &row.mime, &row.size, &row.createdAt); err != nil {
			return nil, err
		}
		assets = append(assets, row)
	}
	return assets, rows.Err()
}
