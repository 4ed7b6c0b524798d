package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/karthikpt1/mcpforge/internal/app"
	"github.com/karthikpt1/mcpforge/internal/deploy"
	"github.com/karthikpt1/mcpforge/internal/generator"
	"github.com/karthikpt1/mcpforge/internal/parser"
	"github.com/karthikpt1/mcpforge/internal/registry"
	"github.com/karthikpt1/mcpforge/internal/server/middleware"
)

// maxDescriptionSize caps uploaded and fetched API descriptions.
const maxDescriptionSize = 10 << 20

// GenerateHandler handles generation and detection requests.
type GenerateHandler struct {
	app    *app.App
	client *http.Client
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(application *app.App) *GenerateHandler {
	return &GenerateHandler{
		app:    application,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	// Description is the inline API description. URL is the alternative:
	// fetch the description from a remote location.
	Description string `json:"description"`
	URL         string `json:"url"`
	Name        string `json:"name"`
}

type generateResponse struct {
	Server    *registry.Server  `json:"server"`
	Artifacts []deploy.Artifact `json:"artifacts"`
}

// Generate runs the full pipeline on a submitted description and stores
// the outcome in the registry.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDescriptionSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	content := []byte(req.Description)
	if req.URL != "" {
		fetched, err := h.fetch(req.URL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		content = fetched
	}
	if len(content) == 0 {
		writeError(w, http.StatusBadRequest, "no description provided")
		return
	}

	res, err := h.app.ParserManager.Parse(content, &parser.Options{APIName: req.Name})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	code, err := generator.Generate(&generator.Request{
		APIName: res.APIName,
		Tools:   res.Tools,
		Models:  res.Models,
	})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	record, err := h.app.RegistryService.RecordGeneration(res, content, code)
	if err != nil {
		h.app.Logger.Error("failed to record generation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record generation")
		return
	}

	artifacts, err := deploy.Build(&deploy.Input{
		APIName:        res.APIName,
		ServerFileName: generator.ServerFileName(res.APIName),
		ServerSource:   code,
		EnvVars:        record.EnvVars,
	})
	if err != nil {
		h.app.Logger.Error("failed to build artifacts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build artifacts")
		return
	}

	h.app.Logger.Info("generated server",
		"slug", record.Slug,
		"flavor", record.Flavor,
		"tools", record.ToolCount,
	)

	writeJSON(w, http.StatusOK, generateResponse{Server: record, Artifacts: artifacts})
}

// Detect reports the description flavor without running the pipeline.
func (h *GenerateHandler) Detect(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(io.LimitReader(r.Body, maxDescriptionSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	flavor, err := h.app.ParserManager.Detect(content)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"flavor": string(flavor)})
}

func (h *GenerateHandler) fetch(rawURL string) ([]byte, error) {
	if msg := middleware.ValidateURL(rawURL); msg != "" {
		return nil, fmt.Errorf("refusing to fetch %s: %s", rawURL, msg)
	}

	resp, err := h.client.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch description: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch description: status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDescriptionSize))
}

// writePipelineError maps pipeline errors to status codes: input problems
// are 422, internal defects are 500.
func (h *GenerateHandler) writePipelineError(w http.ResponseWriter, err error) {
	var formatErr *parser.FormatError
	var validationErr *parser.ValidationError
	var mixedErr *generator.MixedToolsError

	switch {
	case errors.As(err, &formatErr), errors.As(err, &validationErr), errors.As(err, &mixedErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.app.Logger.Error("generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
