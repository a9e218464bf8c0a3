package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ayusman/unistroke/internal/app"
	"github.com/ayusman/unistroke/internal/gesture"
	"github.com/ayusman/unistroke/internal/store"
)

// TemplateHandler handles HTTP requests for template resources.
type TemplateHandler struct {
	app *app.App
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(a *app.App) *TemplateHandler {
	return &TemplateHandler{app: a}
}

// Register adds the template routes to r.
func (h *TemplateHandler) Register(r *mux.Router) {
	r.HandleFunc("/templates", h.List).Methods(http.MethodGet)
	r.HandleFunc("/templates", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/templates/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/templates/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/templates/{id}", h.Delete).Methods(http.MethodDelete)
}

// createTemplateRequest carries either a single stroke in Points, several
// recordings in Samples, or both.
type createTemplateRequest struct {
	Name    string            `json:"name"`
	Points  []gesture.Point   `json:"points,omitempty"`
	Samples []json.RawMessage `json:"samples,omitempty"`
}

type updateTemplateRequest struct {
	Name string `json:"name"`
}

type templateResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	NumResampled int             `json:"num_resampled"`
	SquareSize   float64         `json:"square_size"`
	Samples      int             `json:"samples"`
	Points       []gesture.Point `json:"points,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

type listTemplatesResponse struct {
	Templates []templateResponse `json:"templates"`
}

// toResponse converts a stored template. Points are included when
// withPoints is set and the stroke decodes.
func toResponse(t *store.Template, withPoints bool) templateResponse {
	resp := templateResponse{
		ID:           t.ID,
		Name:         t.Name,
		NumResampled: t.NumResampled,
		SquareSize:   t.SquareSize,
		Samples:      t.Samples,
		CreatedAt:    formatTime(t.CreatedAt),
		UpdatedAt:    formatTime(t.UpdatedAt),
	}
	if withPoints {
		if g, err := t.Decode(); err == nil {
			resp.Points = g.Points()
		}
	}
	return resp
}

// List handles GET /api/templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.app.Store().Templates().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	response := listTemplatesResponse{
		Templates: make([]templateResponse, 0, len(templates)),
	}
	for _, t := range templates {
		response.Templates = append(response.Templates, toResponse(t, false))
	}

	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/templates/{id}.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.app.Store().Templates().GetByID(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err, "Failed to get template")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(t, true))
}

// Create handles POST /api/templates. The strokes are trained into one
// template and kept as its samples.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	samples, err := gesture.ParseSamples(req.Samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Points) > 0 {
		samples = append([][]gesture.Point{req.Points}, samples...)
	}
	if len(samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one stroke is required")
		return
	}

	t, err := h.app.CreateTemplate(req.Name, samples)
	if err != nil {
		writeDomainError(w, err, "Failed to create template")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(t, true))
}

// Update handles PUT /api/templates/{id}, which renames a template.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	t, err := h.app.RenameTemplate(mux.Vars(r)["id"], req.Name)
	if err != nil {
		writeDomainError(w, err, "Failed to update template")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(t, false))
}

// Delete handles DELETE /api/templates/{id}.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.app.RemoveTemplate(mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err, "Failed to delete template")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
