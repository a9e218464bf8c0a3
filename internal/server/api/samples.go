package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/unistroke/internal/app"
	"github.com/ayusman/unistroke/internal/gesture"
)

// SamplesHandler handles the raw recordings a template was trained from.
type SamplesHandler struct {
	app *app.App
}

// NewSamplesHandler creates a new SamplesHandler.
func NewSamplesHandler(a *app.App) *SamplesHandler {
	return &SamplesHandler{app: a}
}

// Register adds the sample routes to r.
func (h *SamplesHandler) Register(r *mux.Router) {
	r.HandleFunc("/templates/{id}/samples", h.List).Methods(http.MethodGet)
	r.HandleFunc("/templates/{id}/samples", h.Train).Methods(http.MethodPost)
}

type trainRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	TemplateID  string          `json:"template_id"`
	SampleIndex int             `json:"sample_index"`
	Points      []gesture.Point `json:"points"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// List handles GET /api/templates/{id}/samples.
func (h *SamplesHandler) List(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.app.Store().Templates().GetByID(id); err != nil {
		writeDomainError(w, err, "Failed to get template")
		return
	}

	samples, err := h.app.Store().Samples().GetByTemplateID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		g, err := s.Decode()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to decode samples")
			return
		}
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			TemplateID:  s.TemplateID,
			SampleIndex: s.SampleIndex,
			Points:      g.Points(),
			CreatedAt:   formatTime(s.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// Train handles POST /api/templates/{id}/samples. The posted samples
// replace the stored ones and the template is retrained from them.
func (h *SamplesHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	samples, err := gesture.ParseSamples(req.Samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.app.Train(mux.Vars(r)["id"], samples)
	if err != nil {
		writeDomainError(w, err, "Failed to train template")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(t, true))
}
