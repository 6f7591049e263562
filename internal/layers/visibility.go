// Package layers decides what renders: it merges baseline and dynamic
// feature sets per category and gates each layer on the user toggle
// plus a per-category zoom range.
package layers

import (
	"sync"

	"github.com/avetrov/geodesk/internal/model"
)

// ZoomGate is the zoom range within which a layer is eligible to
// render. A nil bound is unbounded. Both ends are inclusive.
type ZoomGate struct {
	MinZoom *int `yaml:"minZoom"`
	MaxZoom *int `yaml:"maxZoom"`
}

func (g ZoomGate) Contains(zoom int) bool {
	if g.MinZoom != nil && zoom < *g.MinZoom {
		return false
	}
	if g.MaxZoom != nil && zoom > *g.MaxZoom {
		return false
	}
	return true
}

func intp(v int) *int { return &v }

// DefaultGates returns the stock zoom thresholds: area and line layers
// gate out at low zoom to avoid clutter, custom objects are effectively
// always on.
func DefaultGates() map[model.Category]ZoomGate {
	return map[model.Category]ZoomGate{
		model.Districts:     {MinZoom: intp(7), MaxZoom: intp(13)},
		model.BusStops:      {MinZoom: intp(14)},
		model.Stations:      {MinZoom: intp(12)},
		model.Streets:       {MinZoom: intp(15)},
		model.CustomObjects: {MinZoom: intp(1)},
	}
}

// Registry holds the per-category gates and user toggles.
type Registry struct {
	mu      sync.RWMutex
	gates   map[model.Category]ZoomGate
	enabled map[model.Category]bool
}

// NewRegistry builds a registry with the given gates (nil means
// DefaultGates). Only custom objects start enabled.
func NewRegistry(gates map[model.Category]ZoomGate) *Registry {
	if gates == nil {
		gates = DefaultGates()
	}
	enabled := make(map[model.Category]bool, len(model.Categories()))
	for _, c := range model.Categories() {
		enabled[c] = c == model.CustomObjects
	}
	return &Registry{gates: gates, enabled: enabled}
}

// IsVisible reports whether a layer renders at the given zoom: the
// user toggle must be on and the zoom gate must contain the zoom. A
// category with no configured gate is ungated.
func (r *Registry) IsVisible(c model.Category, zoom int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.enabled[c] {
		return false
	}
	gate, ok := r.gates[c]
	if !ok {
		return true
	}
	return gate.Contains(zoom)
}

func (r *Registry) Enabled(c model.Category) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[c]
}

// Toggle flips the user flag and returns the new value.
func (r *Registry) Toggle(c model.Category) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled[c] = !r.enabled[c]
	return r.enabled[c]
}

func (r *Registry) SetEnabled(c model.Category, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled[c] = on
}

func (r *Registry) Gate(c model.Category) (ZoomGate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gates[c]
	return g, ok
}
