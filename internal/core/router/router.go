// Package router exposes the editor engine over HTTP. Every handler
// validates its input, delegates to the engine, and records the
// request in the http metrics.
package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/avetrov/geodesk/internal/capture"
	"github.com/avetrov/geodesk/internal/core/observability"
	"github.com/avetrov/geodesk/internal/editor"
	"github.com/avetrov/geodesk/internal/form"
	"github.com/avetrov/geodesk/internal/model"
)

// API mounts the editor routes on a chi router.
type API struct {
	logger *slog.Logger
	engine *editor.Engine
}

func New(logger *slog.Logger, engine *editor.Engine) *API {
	return &API{logger: logger, engine: engine}
}

func (a *API) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", a.instrument("/v1/session", a.getSession))
		r.Post("/session", a.instrument("/v1/session", a.startSession))
		r.Delete("/session", a.instrument("/v1/session", a.cancelSession))
		r.Post("/session/clicks", a.instrument("/v1/session/clicks", a.postClick))
		r.Post("/session/finish", a.instrument("/v1/session/finish", a.finishSession))
		r.Post("/session/commit", a.instrument("/v1/session/commit", a.commitSession))

		r.Get("/layers", a.instrument("/v1/layers", a.getLayers))
		r.Post("/layers/{category}/toggle", a.instrument("/v1/layers/{category}/toggle", a.toggleLayer))
		r.Put("/view", a.instrument("/v1/view", a.putView))

		r.Get("/objects/{category}", a.instrument("/v1/objects/{category}", a.listObjects))
		r.Get("/objects/{category}/fields", a.instrument("/v1/objects/{category}/fields", a.getFields))
		r.Post("/objects/{category}/refresh", a.instrument("/v1/objects/{category}/refresh", a.refreshObjects))
		r.Put("/objects/{category}/{id}", a.instrument("/v1/objects/{category}/{id}", a.updateObject))
		r.Delete("/objects/{category}/{id}", a.instrument("/v1/objects/{category}/{id}", a.deleteObject))
		r.Get("/objects/{category}/{id}/card", a.instrument("/v1/objects/{category}/{id}/card", a.getCard))

		r.Get("/inspect/recent", a.instrument("/v1/inspect/recent", a.getRecent))
		r.Get("/notices", a.instrument("/v1/notices", a.getNotices))
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (a *API) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps engine errors onto status codes: bad input is 422,
// calling an operation in the wrong session state is 409, a missing
// object is 404, everything else is a 502 against the geo backend.
func (a *API) writeError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Msg})
	case errors.Is(err, capture.ErrNoSession),
		errors.Is(err, capture.ErrNotCollecting),
		errors.Is(err, capture.ErrNotReady):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, editor.ErrObjectNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		a.logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	}
}

func categoryParam(r *http.Request) (model.Category, error) {
	return model.ParseCategory(chi.URLParam(r, "category"))
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// --- capture session ---

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Session())
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return
	}
	c, err := model.ParseCategory(body.Category)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	sv, err := a.engine.StartSession(c)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sv)
}

func (a *API) cancelSession(w http.ResponseWriter, r *http.Request) {
	a.engine.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) postClick(w http.ResponseWriter, r *http.Request) {
	var p model.LatLng
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return
	}
	sv, err := a.engine.Click(p)
	if err != nil {
		a.writeError(w, err)
		return
	}
	out := clickResponse{SessionView: sv}
	// once the geometry is complete the client gets it back for preview
	if g, err := a.engine.PendingGeometry(); err == nil {
		out.Geometry = g
	}
	writeJSON(w, http.StatusOK, out)
}

type clickResponse struct {
	editor.SessionView
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
}

func (a *API) finishSession(w http.ResponseWriter, r *http.Request) {
	sv, err := a.engine.Finish()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

func (a *API) commitSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Attributes map[string]any `json:"attributes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return
	}
	created, err := a.engine.Commit(r.Context(), body.Attributes)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// --- layers and view state ---

func (a *API) getLayers(w http.ResponseWriter, r *http.Request) {
	zoom := a.engine.Zoom()
	if raw := r.URL.Query().Get("zoom"); raw != "" {
		z, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "zoom must be an integer"})
			return
		}
		zoom = z
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"zoom":   zoom,
		"layers": a.engine.Layers(zoom),
	})
}

func (a *API) toggleLayer(w http.ResponseWriter, r *http.Request) {
	c, err := categoryParam(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	enabled := a.engine.Toggle(c)
	writeJSON(w, http.StatusOK, map[string]any{"category": c, "enabled": enabled})
}

func (a *API) putView(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Zoom int `json:"zoom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return
	}
	if body.Zoom < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "zoom must be positive"})
		return
	}
	a.engine.SetZoom(body.Zoom)
	writeJSON(w, http.StatusOK, map[string]any{"zoom": body.Zoom})
}

// --- object store ---

func (a *API) listObjects(w http.ResponseWriter, r *http.Request) {
	c, err := categoryParam(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": c,
		"loading":  a.engine.Store().Loading(c),
		"error":    a.engine.Store().Err(c),
		"objects":  a.engine.Objects(c),
	})
}

// getFields serves the attribute schema for a category, labels
// included, so a client can render the entry form.
func (a *API) getFields(w http.ResponseWriter, r *http.Request) {
	c, err := categoryParam(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	fields, err := form.Fields(c)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": c, "fields": fields})
}

func (a *API) refreshObjects(w http.ResponseWriter, r *http.Request) {
	c, err := categoryParam(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	if err := a.engine.Refresh(r.Context(), c); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": c,
		"objects":  a.engine.Objects(c),
	})
}

func (a *API) updateObject(w http.ResponseWriter, r *http.Request) {
	c, err := categoryParam(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "id must be an integer"})
		return
	}
	var body struct {
		Attributes map[string]any `json:"attributes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return
	}
	updated, err := a.engine.UpdateObject(r.Context(), c, id, body.Attributes)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteObject(w http.ResponseWriter, r *http.Request) {
	c, err := categoryParam(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "id must be an integer"})
		return
	}
	if err := a.engine.DeleteObject(r.Context(), c, id); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getCard(w http.ResponseWriter, r *http.Request) {
	c, err := categoryParam(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "id must be an integer"})
		return
	}
	card, err := a.engine.InspectObject(c, id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// --- inspection history and notices ---

func (a *API) getRecent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"views": a.engine.RecentViews()})
}

func (a *API) getNotices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"notices": a.engine.Notices()})
}
