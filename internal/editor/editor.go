// Package editor orchestrates the digitization workflow: capture
// session events, object store refreshes, layer composition, and
// visibility. Every public method is one discrete event applied
// atomically; the engine lock is the Go rendition of the original
// single-threaded event loop.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/avetrov/geodesk/internal/capture"
	"github.com/avetrov/geodesk/internal/core/observability"
	"github.com/avetrov/geodesk/internal/form"
	"github.com/avetrov/geodesk/internal/inspect"
	"github.com/avetrov/geodesk/internal/layers"
	"github.com/avetrov/geodesk/internal/model"
	"github.com/avetrov/geodesk/internal/notice"
	"github.com/avetrov/geodesk/internal/objstore"
	"github.com/avetrov/geodesk/internal/staticdata"
)

// Backend persists user objects; geoapi.Client is the production
// implementation.
type Backend interface {
	FetchAll(ctx context.Context, c model.Category) ([]model.GeoObject, error)
	Create(ctx context.Context, c model.Category, body map[string]any) (model.GeoObject, error)
	Update(ctx context.Context, c model.Category, id int64, body map[string]any) (model.GeoObject, error)
	Delete(ctx context.Context, c model.Category, id int64) error
}

var ErrObjectNotFound = errors.New("editor: object not found")

type Config struct {
	Logger      *slog.Logger
	Backend     Backend
	Registry    *layers.Registry
	Notices     *notice.Board
	History     *inspect.History
	InitialZoom int
}

type Engine struct {
	logger   *slog.Logger
	backend  Backend
	store    *objstore.Store
	registry *layers.Registry
	notices  *notice.Board
	history  *inspect.History

	mu            sync.Mutex
	machine       *capture.Machine
	zoom          int
	baseline      staticdata.Baseline
	baselineReady bool
}

func New(cfg Config) *Engine {
	reg := cfg.Registry
	if reg == nil {
		reg = layers.NewRegistry(nil)
	}
	e := &Engine{
		logger:   cfg.Logger,
		backend:  cfg.Backend,
		registry: reg,
		notices:  cfg.Notices,
		history:  cfg.History,
		machine:  capture.New(),
		zoom:     cfg.InitialZoom,
	}
	e.store = objstore.New(cfg.Logger, cfg.Backend)
	return e
}

// Store exposes the object cache, mostly for wiring and tests.
func (e *Engine) Store() *objstore.Store { return e.store }

// SetBaseline installs the loaded static data and flips readiness.
func (e *Engine) SetBaseline(b staticdata.Baseline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseline = b
	e.baselineReady = true
}

// Readiness implements health.ReadinessReporter.
func (e *Engine) Readiness() (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.baselineReady {
		return false, "baseline loading"
	}
	return true, fmt.Sprintf("baseline loaded (%d layers)", len(e.baseline.Collections))
}

// RefreshAll fetches server truth for every category, the way the map
// page does on mount. Failures are per category and non-fatal.
func (e *Engine) RefreshAll(ctx context.Context) {
	for _, c := range model.Categories() {
		_ = e.store.FetchAll(ctx, c)
	}
}

func (e *Engine) Refresh(ctx context.Context, c model.Category) error {
	return e.store.FetchAll(ctx, c)
}

// --- capture session events ---

// SessionView is the externally visible capture state.
type SessionView struct {
	State    string         `json:"state"`
	Category model.Category `json:"category,omitempty"`
	Clicks   []model.LatLng `json:"clicks"`
}

func (e *Engine) Session() SessionView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionLocked()
}

func (e *Engine) sessionLocked() SessionView {
	return SessionView{
		State:    e.machine.State().String(),
		Category: e.machine.Category(),
		Clicks:   e.machine.Clicks(),
	}
}

// StartSession selects a category and begins collecting clicks. An
// in-progress session is discarded, matching the map page behavior.
func (e *Engine) StartSession(c model.Category) (SessionView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.machine.State() == capture.Collecting {
		observability.IncCaptureSession(string(e.machine.Category()), "discarded")
	}
	if err := e.machine.Select(c); err != nil {
		return e.sessionLocked(), err
	}
	e.logger.Info("capture session started", "category", string(c))
	return e.sessionLocked(), nil
}

// Click appends one map click. When the click count completes the
// geometry the view flips to ready_for_attributes.
func (e *Engine) Click(p model.LatLng) (SessionView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.machine.Click(p); err != nil {
		return e.sessionLocked(), err
	}
	return e.sessionLocked(), nil
}

// Finish ends a district session explicitly. A too-short ring is a
// transient notice and the session keeps collecting.
func (e *Engine) Finish() (SessionView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.machine.Finish(); err != nil {
		e.reject(err, "finish")
		return e.sessionLocked(), err
	}
	return e.sessionLocked(), nil
}

// Cancel destroys the session without submitting.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.machine.State() != capture.Idle {
		observability.IncCaptureSession(string(e.machine.Category()), "cancelled")
	}
	e.machine.Reset()
}

// PendingGeometry returns the built geometry of a completed session.
func (e *Engine) PendingGeometry() (*geojson.Geometry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Geometry()
}

// Commit validates the attribute mapping, sends geometry plus
// attributes to the backend, refreshes the category, and resets the
// session. On validation failure or backend failure the session stays
// in ready_for_attributes so the user can retry.
func (e *Engine) Commit(ctx context.Context, attrs map[string]any) (model.GeoObject, error) {
	e.mu.Lock()
	cat := e.machine.Category()
	geom, err := e.machine.Geometry()
	if err != nil {
		e.mu.Unlock()
		return model.GeoObject{}, err
	}

	typed, err := form.Build(cat, attrs)
	if err != nil {
		e.reject(err, "commit")
		e.mu.Unlock()
		return model.GeoObject{}, err
	}
	e.mu.Unlock()

	body := typed.Payload()
	body["geometry"] = geom

	created, err := e.backend.Create(ctx, cat, body)
	if err != nil {
		e.logger.Error("create object failed", "category", string(cat), "err", err)
		return model.GeoObject{}, fmt.Errorf("create %s: %w", cat, err)
	}

	// the lock was released around the backend call; reset only if the
	// machine still holds the session that was committed, not one the
	// user started while the create was in flight
	e.mu.Lock()
	if e.machine.State() == capture.ReadyForAttributes && e.machine.Category() == cat {
		e.machine.Reset()
	}
	e.mu.Unlock()

	e.store.Add(cat, created)
	// pull server truth; non-fatal, the optimistic Add already landed
	if err := e.store.FetchAll(ctx, cat); err != nil {
		e.logger.Warn("post-create refresh failed", "category", string(cat), "err", err)
	}

	observability.IncCaptureSession(string(cat), "committed")
	e.logger.Info("object created", "category", string(cat), "id", created.ID)
	return created, nil
}

// reject records a validation failure: transient notice plus metric.
// Caller holds the engine lock.
func (e *Engine) reject(err error, op string) {
	var verr *model.ValidationError
	if errors.As(err, &verr) && e.notices != nil {
		e.notices.Post(notice.Error, verr.Msg)
	}
	observability.IncValidationFailure(op)
	e.logger.Warn("input rejected", "op", op, "err", err)
}

// --- view state and layers ---

func (e *Engine) Zoom() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoom
}

func (e *Engine) SetZoom(z int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.zoom = z
}

func (e *Engine) Toggle(c model.Category) bool {
	return e.registry.Toggle(c)
}

// LayerView is one composed, gated layer as served to the client.
type LayerView struct {
	Category model.Category             `json:"category"`
	Version  string                     `json:"version"`
	Enabled  bool                       `json:"enabled"`
	Visible  bool                       `json:"visible"`
	MinZoom  *int                       `json:"minZoom,omitempty"`
	MaxZoom  *int                       `json:"maxZoom,omitempty"`
	Count    int                        `json:"count"`
	Loading  bool                       `json:"loading"`
	Error    string                     `json:"error,omitempty"`
	Features *geojson.FeatureCollection `json:"features,omitempty"`
}

// Layers recomputes the renderable state at the given zoom: baseline
// and dynamic sets merged per category, each with its visibility
// verdict and a version fingerprint that moves when either source
// changes. Invisible layers keep their metadata but carry no feature
// payload.
func (e *Engine) Layers(zoom int) []LayerView {
	e.mu.Lock()
	static := e.baseline.Collections
	staticVers := e.baseline.Versions
	e.mu.Unlock()

	merged := layers.Compose(static, e.store.Snapshot())

	out := make([]LayerView, 0, len(merged))
	for _, c := range model.Categories() {
		fc, ok := merged[c]
		if !ok {
			continue
		}
		visible := e.registry.IsVisible(c, zoom)
		lv := LayerView{
			Category: c,
			Version:  layerVersion(staticVers[c], e.store.Generation(c)),
			Enabled:  e.registry.Enabled(c),
			Visible:  visible,
			Count:    len(fc.Features),
			Loading:  e.store.Loading(c),
			Error:    e.store.Err(c),
		}
		// the client renders the zoom range next to the toggle
		if gate, ok := e.registry.Gate(c); ok {
			lv.MinZoom = gate.MinZoom
			lv.MaxZoom = gate.MaxZoom
		}
		if visible {
			lv.Features = fc
		}
		out = append(out, lv)
	}
	return out
}

func layerVersion(staticSum, generation uint64) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%d:%d", staticSum, generation)))
}

// --- object operations ---

func (e *Engine) Objects(c model.Category) []model.GeoObject {
	return e.store.Objects(c)
}

// UpdateObject rewrites an object's attributes through the backend and
// swaps the cached copy.
func (e *Engine) UpdateObject(ctx context.Context, c model.Category, id int64, attrs map[string]any) (model.GeoObject, error) {
	typed, err := form.Build(c, attrs)
	if err != nil {
		e.mu.Lock()
		e.reject(err, "update")
		e.mu.Unlock()
		return model.GeoObject{}, err
	}

	updated, err := e.backend.Update(ctx, c, id, typed.Payload())
	if err != nil {
		return model.GeoObject{}, fmt.Errorf("update %s/%d: %w", c, id, err)
	}
	e.store.Replace(c, updated)
	return updated, nil
}

// DeleteObject removes an object from the backend and the cache.
func (e *Engine) DeleteObject(ctx context.Context, c model.Category, id int64) error {
	if err := e.backend.Delete(ctx, c, id); err != nil {
		return fmt.Errorf("delete %s/%d: %w", c, id, err)
	}
	e.store.Remove(c, id)
	return nil
}

// InspectObject builds the inspection card for a cached object and
// records the view in the recent history.
func (e *Engine) InspectObject(c model.Category, id int64) (inspect.Card, error) {
	for _, o := range e.store.Objects(c) {
		if o.ID == id {
			card := inspect.BuildCard(o.Properties())
			if e.history != nil {
				e.history.Record(c, id, card.Title)
			}
			return card, nil
		}
	}
	return inspect.Card{}, ErrObjectNotFound
}

func (e *Engine) RecentViews() []inspect.View {
	if e.history == nil {
		return nil
	}
	return e.history.Recent()
}

func (e *Engine) Notices() []notice.Notice {
	if e.notices == nil {
		return nil
	}
	return e.notices.Active()
}
