package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/avetrov/geodesk/internal/editor"
	"github.com/avetrov/geodesk/internal/inspect"
	"github.com/avetrov/geodesk/internal/model"
	"github.com/avetrov/geodesk/internal/notice"
	"github.com/avetrov/geodesk/internal/staticdata"
)

type stubBackend struct {
	nextID  int64
	objects map[model.Category][]model.GeoObject
}

func (s *stubBackend) FetchAll(context.Context, model.Category) ([]model.GeoObject, error) {
	return nil, nil
}

func (s *stubBackend) Create(_ context.Context, c model.Category, body map[string]any) (model.GeoObject, error) {
	s.nextID++
	obj := model.GeoObject{ID: s.nextID, Fields: map[string]any{}}
	for k, v := range body {
		if k == "geometry" {
			obj.Geometry, _ = v.(*geojson.Geometry)
			continue
		}
		obj.Fields[k] = v
	}
	if s.objects == nil {
		s.objects = map[model.Category][]model.GeoObject{}
	}
	s.objects[c] = append(s.objects[c], obj)
	return obj, nil
}

func (s *stubBackend) Update(_ context.Context, _ model.Category, id int64, body map[string]any) (model.GeoObject, error) {
	return model.GeoObject{ID: id, Fields: body}, nil
}

func (s *stubBackend) Delete(context.Context, model.Category, int64) error { return nil }

func newTestRouter(t *testing.T) (*chi.Mux, *editor.Engine) {
	t.Helper()
	hist, err := inspect.NewHistory(8)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := editor.New(editor.Config{
		Logger:      logger,
		Backend:     &stubBackend{},
		Notices:     notice.NewBoard(4 * time.Second),
		History:     hist,
		InitialZoom: 10,
	})
	eng.SetBaseline(staticdata.Baseline{})

	r := chi.NewRouter()
	New(logger, eng).Mount(r)
	return r, eng
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := do(t, r, http.MethodPost, "/v1/session", `{"category":"bus_stops"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("start session: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, r, http.MethodPost, "/v1/session/clicks", `{"lat":55.75,"lng":37.61}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("click: %d %s", rr.Code, rr.Body.String())
	}
	var sv struct {
		State    string `json:"state"`
		Clicks   []any  `json:"clicks"`
		Geometry *struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &sv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sv.State != "ready_for_attributes" || len(sv.Clicks) != 1 {
		t.Fatalf("session view = %+v", sv)
	}
	if sv.Geometry == nil || sv.Geometry.Type != "Point" ||
		sv.Geometry.Coordinates[0] != 37.61 || sv.Geometry.Coordinates[1] != 55.75 {
		t.Fatalf("click response geometry = %+v", sv.Geometry)
	}

	rr = do(t, r, http.MethodPost, "/v1/session/commit",
		`{"attributes":{"name_mpv":"Test","rayon":"r","ao":"a","marshrut":"m"}}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("commit: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, r, http.MethodGet, "/v1/session", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"state":"idle"`) {
		t.Fatalf("session after commit: %d %s", rr.Code, rr.Body.String())
	}
}

func TestClickWithoutSessionConflicts(t *testing.T) {
	r, _ := newTestRouter(t)
	rr := do(t, r, http.MethodPost, "/v1/session/clicks", `{"lat":1,"lng":2}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("code = %d, want 409", rr.Code)
	}
}

func TestStartSessionRejectsUnknownCategory(t *testing.T) {
	r, _ := newTestRouter(t)
	rr := do(t, r, http.MethodPost, "/v1/session", `{"category":"rivers"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rr.Code)
	}
}

func TestCommitValidationFailureIs422(t *testing.T) {
	r, _ := newTestRouter(t)
	do(t, r, http.MethodPost, "/v1/session", `{"category":"custom_objects"}`)
	do(t, r, http.MethodPost, "/v1/session/clicks", `{"lat":55,"lng":37}`)

	rr := do(t, r, http.MethodPost, "/v1/session/commit", `{"attributes":{}}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d, want 422: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, r, http.MethodGet, "/v1/notices", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "notices") {
		t.Fatalf("notices: %d %s", rr.Code, rr.Body.String())
	}
}

func TestLayersEndpoint(t *testing.T) {
	r, eng := newTestRouter(t)
	eng.Store().Add(model.Districts, model.GeoObject{ID: 1, Fields: map[string]any{"name": "ЦАО"}})

	rr := do(t, r, http.MethodGet, "/v1/layers?zoom=10", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("layers: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Zoom   int `json:"zoom"`
		Layers []struct {
			Category string `json:"category"`
			Visible  bool   `json:"visible"`
			Count    int    `json:"count"`
		} `json:"layers"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Zoom != 10 || len(out.Layers) != 1 || out.Layers[0].Category != "districts" {
		t.Fatalf("layers body = %+v", out)
	}

	rr = do(t, r, http.MethodGet, "/v1/layers?zoom=abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad zoom: %d", rr.Code)
	}
}

func TestToggleAndView(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := do(t, r, http.MethodPost, "/v1/layers/districts/toggle", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"enabled":true`) {
		t.Fatalf("toggle: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, r, http.MethodPost, "/v1/layers/rivers/toggle", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown layer toggle: %d", rr.Code)
	}

	rr = do(t, r, http.MethodPut, "/v1/view", `{"zoom":15}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("view: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, r, http.MethodPut, "/v1/view", `{"zoom":0}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("zero zoom: %d", rr.Code)
	}
}

func TestObjectCardAndRecent(t *testing.T) {
	r, eng := newTestRouter(t)
	eng.Store().Add(model.Stations, model.GeoObject{
		ID:     5,
		Fields: map[string]any{"name_station": "Арбатская"},
	})

	rr := do(t, r, http.MethodGet, "/v1/objects/stations/5/card", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Арбатская") {
		t.Fatalf("card: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, r, http.MethodGet, "/v1/objects/stations/99/card", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing card: %d", rr.Code)
	}

	rr = do(t, r, http.MethodGet, "/v1/inspect/recent", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Арбатская") {
		t.Fatalf("recent: %d %s", rr.Code, rr.Body.String())
	}
}

func TestFieldsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := do(t, r, http.MethodGet, "/v1/objects/streets/fields", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("fields: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Fields []struct {
			Key       string `json:"key"`
			Label     string `json:"label"`
			UserEntry bool   `json:"userEntry"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Fields) != 3 || out.Fields[0].Key != "id" || out.Fields[0].UserEntry {
		t.Fatalf("streets fields = %+v", out.Fields)
	}

	rr = do(t, r, http.MethodGet, "/v1/objects/rivers/fields", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown category fields: %d", rr.Code)
	}
}

func TestDeleteObject(t *testing.T) {
	r, eng := newTestRouter(t)
	eng.Store().Add(model.CustomObjects, model.GeoObject{ID: 2, Fields: map[string]any{"name": "x"}})

	rr := do(t, r, http.MethodDelete, "/v1/objects/custom_objects/2", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}
	if got := len(eng.Objects(model.CustomObjects)); got != 0 {
		t.Fatalf("objects after delete = %d", got)
	}

	rr = do(t, r, http.MethodDelete, "/v1/objects/custom_objects/abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", rr.Code)
	}
}
