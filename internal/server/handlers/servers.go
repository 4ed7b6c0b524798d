package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/karthikpt1/mcpforge/internal/app"
	"github.com/karthikpt1/mcpforge/internal/deploy"
	"github.com/karthikpt1/mcpforge/internal/generator"
	"github.com/karthikpt1/mcpforge/internal/server/middleware"
)

// ServersHandler handles registry browsing requests.
type ServersHandler struct {
	app *app.App
}

// NewServersHandler creates a new ServersHandler.
func NewServersHandler(application *app.App) *ServersHandler {
	return &ServersHandler{app: application}
}

// List returns a paginated list of generated servers.
func (h *ServersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	servers, total, err := h.app.RegistryService.ListServers(page, 20)
	if err != nil {
		h.app.Logger.Error("failed to list servers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list servers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"servers": servers,
		"total":   total,
		"page":    page,
	})
}

// Get returns a single server record including its source code.
func (h *ServersHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	record, err := h.app.RegistryService.GetServer(slug)
	if err != nil {
		h.app.Logger.Error("failed to get server", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get server")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Artifact returns one deployment artifact of a stored server as a
// downloadable file.
func (h *ServersHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	kind := chi.URLParam(r, "kind")

	record, err := h.app.RegistryService.GetServer(slug)
	if err != nil {
		h.app.Logger.Error("failed to get server", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get server")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	artifact, err := deploy.ByKind(&deploy.Input{
		APIName:        record.APIName,
		ServerFileName: generator.ServerFileName(record.APIName),
		ServerSource:   record.Code,
		EnvVars:        record.EnvVars,
	}, kind)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+middleware.SanitizeFilename(artifact.Name)+"\"")
	w.Write([]byte(artifact.Content))
}

// Delete removes a server record.
func (h *ServersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.app.RegistryService.DeleteServer(id); err != nil {
		h.app.Logger.Error("failed to delete server", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete server")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
