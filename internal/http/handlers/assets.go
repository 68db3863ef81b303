package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"promptstudio/internal/infra"
	"promptstudio/internal/sqlinline"
)

// DownloadAsset streams one stored asset with its recorded MIME type.
func (a *App) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")
	if assetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset_id required")
		return
	}

	var (
		id, requestID, kind, storageKey, mime string
		size                                  int64
		createdAt                             time.Time
	)
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectAssetByID, assetID)
	if err := row.Scan(&id, &requestID, &kind, &storageKey, &mime, &size, &createdAt); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "asset not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch asset")
		return
	}

	rc, err := a.Store.Open(r.Context(), storageKey)
	if err != nil {
		a.Logger.Error().Err(err).Str("asset_id", id).Msg("assets: stored file missing")
		a.error(w, http.StatusNotFound, "not_found", "asset data missing")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", mime)
	_, _ = io.Copy(w, rc)
}
