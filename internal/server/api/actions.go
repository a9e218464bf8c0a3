package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ayusman/unistroke/internal/app"
	"github.com/ayusman/unistroke/internal/plugin"
	"github.com/ayusman/unistroke/internal/store"
)

// ActionHandler handles the action bound to a template.
type ActionHandler struct {
	app *app.App
}

// NewActionHandler creates a new ActionHandler.
func NewActionHandler(a *app.App) *ActionHandler {
	return &ActionHandler{app: a}
}

// Register adds the action and plugin routes to r.
func (h *ActionHandler) Register(r *mux.Router) {
	r.HandleFunc("/templates/{id}/action", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/templates/{id}/action", h.Put).Methods(http.MethodPut)
	r.HandleFunc("/templates/{id}/action", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/plugins", h.ListPlugins).Methods(http.MethodGet)
}

type putActionRequest struct {
	Plugin  string          `json:"plugin"`
	Action  string          `json:"action"`
	Config  json.RawMessage `json:"config,omitempty"`
	Enabled *bool           `json:"enabled,omitempty"`
}

type actionResponse struct {
	ID         string          `json:"id"`
	TemplateID string          `json:"template_id"`
	Plugin     string          `json:"plugin"`
	Action     string          `json:"action"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

func toActionResponse(a *store.Action) actionResponse {
	return actionResponse{
		ID:         a.ID,
		TemplateID: a.TemplateID,
		Plugin:     a.PluginName,
		Action:     a.ActionName,
		Config:     a.Config,
		Enabled:    a.Enabled,
		CreatedAt:  formatTime(a.CreatedAt),
	}
}

// lookup returns the template's action, or ErrNotFound if the template
// or its action does not exist.
func (h *ActionHandler) lookup(templateID string) (*store.Action, error) {
	if _, err := h.app.Store().Templates().GetByID(templateID); err != nil {
		return nil, err
	}
	a, err := h.app.Store().Actions().GetByTemplateID(templateID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("action: %w", store.ErrNotFound)
	}
	return a, nil
}

// Get handles GET /api/templates/{id}/action.
func (h *ActionHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.lookup(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err, "Failed to get action")
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(a))
}

// Put handles PUT /api/templates/{id}/action, creating or replacing the
// binding. The plugin must be installed and declare the action.
func (h *ActionHandler) Put(w http.ResponseWriter, r *http.Request) {
	templateID := mux.Vars(r)["id"]

	var req putActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Plugin == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "Plugin and action are required")
		return
	}
	if len(req.Config) > 0 && !json.Valid(req.Config) {
		writeError(w, http.StatusBadRequest, "Invalid config")
		return
	}

	p, err := h.app.PluginManager().Get(req.Plugin)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown plugin %q", req.Plugin))
		return
	}
	if !p.Supports(req.Action) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %s/%s", plugin.ErrUnsupportedAction, req.Plugin, req.Action))
		return
	}

	if _, err := h.app.Store().Templates().GetByID(templateID); err != nil {
		writeDomainError(w, err, "Failed to get template")
		return
	}

	actions := h.app.Store().Actions()
	existing, err := actions.GetByTemplateID(templateID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	status := http.StatusOK
	a := existing
	if a == nil {
		a = &store.Action{ID: uuid.NewString(), TemplateID: templateID}
		status = http.StatusCreated
	}
	a.PluginName = req.Plugin
	a.ActionName = req.Action
	a.Config = req.Config
	a.Enabled = enabled

	if existing == nil {
		err = actions.Create(a)
	} else {
		err = actions.Update(a)
	}
	if err != nil {
		writeDomainError(w, err, "Failed to save action")
		return
	}

	saved, err := actions.GetByID(a.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}
	writeJSON(w, status, toActionResponse(saved))
}

// Delete handles DELETE /api/templates/{id}/action.
func (h *ActionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := h.lookup(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err, "Failed to get action")
		return
	}

	if err := h.app.Store().Actions().Delete(a.ID); err != nil {
		writeDomainError(w, err, "Failed to delete action")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPlugins handles GET /api/plugins.
func (h *ActionHandler) ListPlugins(w http.ResponseWriter, r *http.Request) {
	plugins := h.app.PluginManager().List()

	response := struct {
		Plugins []pluginResponse `json:"plugins"`
	}{
		Plugins: make([]pluginResponse, 0, len(plugins)),
	}
	for _, p := range plugins {
		response.Plugins = append(response.Plugins, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     p.Manifest.Actions,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
