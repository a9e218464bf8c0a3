package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/unistroke/internal/app"
	"github.com/ayusman/unistroke/internal/gesture"
	"github.com/ayusman/unistroke/internal/store"
)

func circle(n int, cx, cy, r float64) []gesture.Point {
	points := make([]gesture.Point, n)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(n-1)
		points[i] = gesture.Pt(cx+r*math.Cos(a), cy+r*math.Sin(a))
	}
	return points
}

func line(n int, x float64) []gesture.Point {
	points := make([]gesture.Point, n)
	for i := range points {
		points[i] = gesture.Pt(x*float64(i)/float64(n-1), 0)
	}
	return points
}

type testEnv struct {
	app    *app.App
	router *mux.Router
}

func newTestEnv(t *testing.T, maxDistance float64) *testEnv {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	pluginDir := t.TempDir()
	writeEchoPlugin(t, pluginDir)

	a := app.New(app.Config{
		Store:         s,
		PluginDir:     pluginDir,
		PluginTimeout: 5 * time.Second,
		Recognizer:    gesture.DefaultOptions(),
		MaxDistance:   maxDistance,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := a.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	if err := a.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}

	r := mux.NewRouter()
	Register(r.PathPrefix("/api").Subrouter(), a)
	return &testEnv{app: a, router: r}
}

func writeEchoPlugin(t *testing.T, dir string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		return
	}

	pluginDir := filepath.Join(dir, "echo")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	manifest := `{"name": "echo", "version": "1.0.0", "description": "Echoes its input", "executable": "echo.sh", "actions": ["run"]}`
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	script := "#!/bin/sh\nINPUT=$(cat)\necho \"{\\\"success\\\":true,\\\"data\\\":$INPUT}\"\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "echo.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = bytes.NewBufferString(s)
		} else {
			data, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("failed to marshal body: %v", err)
			}
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func (e *testEnv) create(t *testing.T, name string, points []gesture.Point) templateResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/templates", map[string]any{"name": name, "points": points})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s: expected status 201, got %d: %s", name, rec.Code, rec.Body.String())
	}
	return decode[templateResponse](t, rec)
}

func TestTemplateHandler_CreateAndGet(t *testing.T) {
	env := newTestEnv(t, 0)

	created := env.create(t, "circle", circle(40, 0, 0, 50))
	if created.ID == "" {
		t.Error("expected ID to be set")
	}
	if created.Name != "circle" {
		t.Errorf("Name = %q, want circle", created.Name)
	}
	if created.NumResampled != 64 || created.SquareSize != 250 {
		t.Errorf("unexpected settings %d/%v", created.NumResampled, created.SquareSize)
	}
	if len(created.Points) != 64 {
		t.Errorf("expected 64 normalised points, got %d", len(created.Points))
	}
	if created.Samples != 1 {
		t.Errorf("Samples = %d, want 1", created.Samples)
	}

	rec := env.do(t, http.MethodGet, "/api/templates/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	got := decode[templateResponse](t, rec)
	if got.ID != created.ID || len(got.Points) != 64 {
		t.Errorf("unexpected template %+v", got)
	}
}

func TestTemplateHandler_CreateWithSamples(t *testing.T) {
	env := newTestEnv(t, 0)

	body := `{"name": "line", "samples": [
		[{"x": 0, "y": 0}, {"x": 100, "y": 0}],
		{"points": [{"x": 0, "y": 10}, {"x": 120, "y": 10}]}
	]}`
	rec := env.do(t, http.MethodPost, "/api/templates", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[templateResponse](t, rec)
	if created.Samples != 2 {
		t.Errorf("Samples = %d, want 2", created.Samples)
	}
}

func TestTemplateHandler_CreateErrors(t *testing.T) {
	env := newTestEnv(t, 0)
	env.create(t, "circle", circle(40, 0, 0, 50))

	tests := []struct {
		name string
		body any
		want int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"unknown field", `{"name": "x", "points": [], "colour": "red"}`, http.StatusBadRequest},
		{"missing name", map[string]any{"points": circle(10, 0, 0, 5)}, http.StatusBadRequest},
		{"no strokes", map[string]any{"name": "empty"}, http.StatusBadRequest},
		{"name with space", map[string]any{"name": "two words", "points": circle(10, 0, 0, 5)}, http.StatusBadRequest},
		{"single point", map[string]any{"name": "dot", "points": []gesture.Point{gesture.Pt(1, 1)}}, http.StatusBadRequest},
		{"duplicate name", map[string]any{"name": "circle", "points": circle(10, 0, 0, 5)}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/templates", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			resp := decode[errorResponse](t, rec)
			if resp.Error == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestTemplateHandler_List(t *testing.T) {
	env := newTestEnv(t, 0)

	rec := env.do(t, http.MethodGet, "/api/templates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := decode[listTemplatesResponse](t, rec); len(got.Templates) != 0 {
		t.Errorf("expected empty list, got %d", len(got.Templates))
	}

	env.create(t, "circle", circle(40, 0, 0, 50))
	env.create(t, "line", line(10, 100))

	rec = env.do(t, http.MethodGet, "/api/templates", nil)
	got := decode[listTemplatesResponse](t, rec)
	if len(got.Templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(got.Templates))
	}
	if got.Templates[0].Name != "circle" || got.Templates[1].Name != "line" {
		t.Errorf("unexpected order %q, %q", got.Templates[0].Name, got.Templates[1].Name)
	}
	if got.Templates[0].Points != nil {
		t.Error("list should not include points")
	}
}

func TestTemplateHandler_RenameAndDelete(t *testing.T) {
	env := newTestEnv(t, 0)
	created := env.create(t, "circle", circle(40, 0, 0, 50))
	env.create(t, "line", line(10, 100))

	rec := env.do(t, http.MethodPut, "/api/templates/"+created.ID, map[string]string{"name": "ring"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[templateResponse](t, rec); got.Name != "ring" {
		t.Errorf("Name = %q, want ring", got.Name)
	}

	rec = env.do(t, http.MethodPut, "/api/templates/"+created.ID, map[string]string{"name": "line"})
	if rec.Code != http.StatusConflict {
		t.Errorf("rename to taken name: expected status 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/templates/missing", map[string]string{"name": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("rename missing: expected status 404, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/templates/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/templates/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: expected status 404, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/templates/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete twice: expected status 404, got %d", rec.Code)
	}

	if env.app.Recognizer().Len() != 1 {
		t.Errorf("expected 1 loaded template, got %d", env.app.Recognizer().Len())
	}
}

func TestTemplateHandler_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, 0)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPatch, "/api/templates"},
		{http.MethodDelete, "/api/templates"},
		{http.MethodPost, "/api/templates/abc"},
		{http.MethodPut, "/api/templates/abc/samples"},
		{http.MethodPost, "/api/templates/abc/action"},
		{http.MethodPost, "/api/plugins"},
		{http.MethodGet, "/api/recognize"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, nil)
			if rec.Code != http.StatusMethodNotAllowed {
				t.Fatalf("expected status 405, got %d", rec.Code)
			}
			if resp := decode[errorResponse](t, rec); resp.Error == "" {
				t.Error("expected error message in body")
			}
		})
	}

	// Supported methods still reach their handlers.
	if rec := env.do(t, http.MethodGet, "/api/templates", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /api/templates: expected status 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/templates/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/templates/missing: expected status 404, got %d", rec.Code)
	}
}

func TestSamplesHandler_ListAndTrain(t *testing.T) {
	env := newTestEnv(t, 0)
	created := env.create(t, "line", line(10, 100))

	rec := env.do(t, http.MethodGet, "/api/templates/"+created.ID+"/samples", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	got := decode[listSamplesResponse](t, rec)
	if len(got.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(got.Samples))
	}
	if len(got.Samples[0].Points) != 10 {
		t.Errorf("expected raw sample with 10 points, got %d", len(got.Samples[0].Points))
	}

	body := map[string]any{"samples": [][]gesture.Point{line(5, 80), line(8, 120), line(12, 60)}}
	rec = env.do(t, http.MethodPost, "/api/templates/"+created.ID+"/samples", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("train: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if trained := decode[templateResponse](t, rec); trained.Samples != 3 {
		t.Errorf("Samples = %d, want 3", trained.Samples)
	}

	rec = env.do(t, http.MethodGet, "/api/templates/"+created.ID+"/samples", nil)
	got = decode[listSamplesResponse](t, rec)
	if len(got.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got.Samples))
	}
	for i, s := range got.Samples {
		if s.SampleIndex != i {
			t.Errorf("sample %d has index %d", i, s.SampleIndex)
		}
	}
}

func TestSamplesHandler_Errors(t *testing.T) {
	env := newTestEnv(t, 0)
	created := env.create(t, "line", line(10, 100))

	rec := env.do(t, http.MethodGet, "/api/templates/missing/samples", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("list missing: expected status 404, got %d", rec.Code)
	}

	body := map[string]any{"samples": [][]gesture.Point{line(5, 80)}}
	rec = env.do(t, http.MethodPost, "/api/templates/missing/samples", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("train missing: expected status 404, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/templates/"+created.ID+"/samples", map[string]any{"samples": []any{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no samples: expected status 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/templates/"+created.ID+"/samples", `{"samples": ["nope"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed sample: expected status 400, got %d", rec.Code)
	}
}

func TestActionHandler_PutGetDelete(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	env := newTestEnv(t, 0)
	created := env.create(t, "circle", circle(40, 0, 0, 50))
	path := "/api/templates/" + created.ID + "/action"

	rec := env.do(t, http.MethodGet, path, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get unbound: expected status 404, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, path, map[string]any{
		"plugin": "echo",
		"action": "run",
		"config": map[string]string{"key": "value"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("put: expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	first := decode[actionResponse](t, rec)
	if first.ID == "" || !first.Enabled || first.TemplateID != created.ID {
		t.Errorf("unexpected action %+v", first)
	}

	rec = env.do(t, http.MethodPut, path, map[string]any{"plugin": "echo", "action": "run", "enabled": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("replace: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	second := decode[actionResponse](t, rec)
	if second.ID != first.ID {
		t.Errorf("replace changed ID from %q to %q", first.ID, second.ID)
	}
	if second.Enabled {
		t.Error("expected action to be disabled")
	}

	rec = env.do(t, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected status 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, path, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, path, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete twice: expected status 404, got %d", rec.Code)
	}
}

func TestActionHandler_PutValidation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	env := newTestEnv(t, 0)
	created := env.create(t, "circle", circle(40, 0, 0, 50))
	path := "/api/templates/" + created.ID + "/action"

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing action", path, map[string]string{"plugin": "echo"}, http.StatusBadRequest},
		{"unknown plugin", path, map[string]string{"plugin": "ghost", "action": "run"}, http.StatusBadRequest},
		{"unsupported action", path, map[string]string{"plugin": "echo", "action": "fly"}, http.StatusBadRequest},
		{"missing template", "/api/templates/missing/action", map[string]string{"plugin": "echo", "action": "run"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestActionHandler_ListPlugins(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	env := newTestEnv(t, 0)

	rec := env.do(t, http.MethodGet, "/api/plugins", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	got := decode[struct {
		Plugins []pluginResponse `json:"plugins"`
	}](t, rec)
	if len(got.Plugins) != 1 || got.Plugins[0].Name != "echo" {
		t.Fatalf("unexpected plugins %+v", got.Plugins)
	}
	if len(got.Plugins[0].Actions) != 1 || got.Plugins[0].Actions[0] != "run" {
		t.Errorf("unexpected actions %v", got.Plugins[0].Actions)
	}
}

type recognizeResult struct {
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Score      float64 `json:"score"`
	TemplateID string  `json:"template_id"`
	Matched    bool    `json:"matched"`
	Action     *struct {
		Plugin  string `json:"plugin"`
		Success bool   `json:"success"`
	} `json:"action"`
}

func TestRecognizeHandler(t *testing.T) {
	env := newTestEnv(t, 0)

	rec := env.do(t, http.MethodPost, "/api/recognize", map[string]any{"points": circle(30, 0, 0, 10)})
	if rec.Code != http.StatusConflict {
		t.Errorf("empty library: expected status 409, got %d", rec.Code)
	}

	circ := env.create(t, "circle", circle(40, 0, 0, 50))
	env.create(t, "line", line(10, 100))

	rec = env.do(t, http.MethodPost, "/api/recognize", map[string]any{"points": circle(70, 300, -20, 15)})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[recognizeResult](t, rec)
	if !got.Matched || got.Name != "circle" || got.TemplateID != circ.ID {
		t.Errorf("unexpected result %+v", got)
	}
	if got.Score <= 0 || got.Score > 1 {
		t.Errorf("score %v out of range", got.Score)
	}
	if got.Action != nil {
		t.Errorf("expected no action, got %+v", got.Action)
	}

	rec = env.do(t, http.MethodPost, "/api/recognize", map[string]any{"points": []gesture.Point{gesture.Pt(0, 0)}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("single point: expected status 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/recognize", "not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid json: expected status 400, got %d", rec.Code)
	}
}

func TestRecognizeHandler_RunsAction(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	env := newTestEnv(t, 0)
	circ := env.create(t, "circle", circle(40, 0, 0, 50))
	env.create(t, "line", line(10, 100))

	rec := env.do(t, http.MethodPut, "/api/templates/"+circ.ID+"/action", map[string]string{"plugin": "echo", "action": "run"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("put action: expected status 201, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/recognize", map[string]any{"points": circle(50, 10, 10, 20)})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[recognizeResult](t, rec)
	if got.Action == nil {
		t.Fatal("expected action result")
	}
	if got.Action.Plugin != "echo" || !got.Action.Success {
		t.Errorf("unexpected action result %+v", got.Action)
	}
}

func TestRecognizeHandler_NoMatch(t *testing.T) {
	env := newTestEnv(t, 1e-6)
	env.create(t, "circle", circle(40, 0, 0, 50))

	rec := env.do(t, http.MethodPost, "/api/recognize", map[string]any{"points": line(10, 100)})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[recognizeResult](t, rec)
	if got.Matched {
		t.Error("expected matched to be false")
	}
	if got.Name != "circle" {
		t.Errorf("expected closest template to be reported, got %q", got.Name)
	}
}
