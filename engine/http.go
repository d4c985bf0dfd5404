package engine

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/calque/evidence"
	"github.com/hazyhaar/calque/shield"
	"github.com/hazyhaar/calque/synth"
)

// Router builds the calque HTTP API with the standard middleware stack.
func (e *Engine) Router() chi.Router {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(e.store.DB) {
		r.Use(mw)
	}
	e.RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts the calque routes on an existing router.
func (e *Engine) RegisterHTTP(r chi.Router) {
	r.Get("/v1/health", e.handleHealth)
	r.Post("/v1/blueprint", e.handleBlueprint)
	r.Post("/v1/css", e.handleCSS)
	r.Post("/v1/html", e.handleHTML)
	r.Post("/v1/plan", e.handlePlan)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleHealth reports liveness and the database round trip.
// GET /v1/health
func (e *Engine) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := e.store.DB.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// blueprintHTTPRequest is the body for POST /v1/blueprint. Exactly one of
// url or evidence must be set.
type blueprintHTTPRequest struct {
	URL      string          `json:"url,omitempty"`
	Evidence json.RawMessage `json:"evidence,omitempty"`
}

// handleBlueprint builds a blueprint from a live capture or an inline
// evidence bundle.
// POST /v1/blueprint
func (e *Engine) handleBlueprint(w http.ResponseWriter, r *http.Request) {
	var req blueprintHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	log := shield.GetLogger(r.Context())

	if req.URL != "" {
		bp, err := e.CaptureAndBuild(r.Context(), req.URL)
		if err != nil {
			log.Error("engine: capture and build", "url", req.URL, "error", err)
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, http.StatusOK, bp)
		return
	}

	if len(req.Evidence) == 0 {
		http.Error(w, "url or evidence required", http.StatusBadRequest)
		return
	}
	bundle, err := evidence.DecodeBundle(req.Evidence, log)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bp, err := e.BuildBlueprint(r.Context(), bundle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, bp)
}

// synthHTTPRequest selects a blueprint for synthesis endpoints.
type synthHTTPRequest struct {
	BlueprintID string          `json:"blueprint_id,omitempty"`
	PageURL     string          `json:"page_url,omitempty"`
	Blueprint   json.RawMessage `json:"blueprint,omitempty"`
	PageHTML    string          `json:"page_html,omitempty"`
}

// handleCSS generates the stylesheet (base plus responsive overrides).
// POST /v1/css
func (e *Engine) handleCSS(w http.ResponseWriter, r *http.Request) {
	var req synthHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	bp, err := e.loadBlueprint(r.Context(), req.BlueprintID, req.PageURL, req.Blueprint)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	stylesheet := synth.GenerateCSS(bp)
	if media := synth.ResponsiveCSS(e.StoredViewports(r.Context(), bp)); media != "" {
		stylesheet += "\n" + media
	}
	writeJSON(w, http.StatusOK, map[string]string{"stylesheet": stylesheet})
}

// handleHTML generates the full markup bundle with per-component files.
// POST /v1/html
func (e *Engine) handleHTML(w http.ResponseWriter, r *http.Request) {
	var req synthHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	bp, err := e.loadBlueprint(r.Context(), req.BlueprintID, req.PageURL, req.Blueprint)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, synth.GenerateBundle(bp, e.StoredViewports(r.Context(), bp)))
}

// handlePlan returns the interaction capture plan of a blueprint.
// POST /v1/plan
func (e *Engine) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req synthHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	bp, err := e.loadBlueprint(r.Context(), req.BlueprintID, req.PageURL, req.Blueprint)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if bp.Interaction == nil {
		writeJSON(w, http.StatusOK, map[string]any{"targets": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, bp.Interaction)
}
