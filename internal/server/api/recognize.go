package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/unistroke/internal/app"
	"github.com/ayusman/unistroke/internal/gesture"
)

// RecognizeHandler matches strokes posted over HTTP.
type RecognizeHandler struct {
	app *app.App
}

// NewRecognizeHandler creates a new RecognizeHandler.
func NewRecognizeHandler(a *app.App) *RecognizeHandler {
	return &RecognizeHandler{app: a}
}

// Register adds the recognition route to r.
func (h *RecognizeHandler) Register(r *mux.Router) {
	r.HandleFunc("/recognize", h.Recognize).Methods(http.MethodPost)
}

type recognizeRequest struct {
	Points []gesture.Point `json:"points"`
}

// RecognizeResponse is the outcome of a recognition. Matched is false
// when the closest template was farther than the maximum distance.
type RecognizeResponse struct {
	*app.Result
	Matched bool `json:"matched"`
}

// Recognize handles POST /api/recognize.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req recognizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.app.Recognize(r.Context(), req.Points)
	switch {
	case errors.Is(err, app.ErrNoMatch):
		writeJSON(w, http.StatusOK, RecognizeResponse{Result: result, Matched: false})
	case err != nil:
		writeDomainError(w, err, "Failed to recognize stroke")
	default:
		writeJSON(w, http.StatusOK, RecognizeResponse{Result: result, Matched: true})
	}
}

// routePaths lists every path Register serves.
var routePaths = []string{
	"/templates",
	"/templates/{id}",
	"/templates/{id}/samples",
	"/templates/{id}/action",
	"/plugins",
	"/recognize",
}

// Register adds every API route to r. A known path requested with an
// unsupported method gets a JSON 405.
func Register(r *mux.Router, a *app.App) {
	NewTemplateHandler(a).Register(r)
	NewSamplesHandler(a).Register(r)
	NewActionHandler(a).Register(r)
	NewRecognizeHandler(a).Register(r)

	// mux drops the method mismatch on some subrouter paths and answers
	// 404, so each path ends with a route that matches any method.
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	for _, path := range routePaths {
		r.HandleFunc(path, methodNotAllowed)
	}
}
