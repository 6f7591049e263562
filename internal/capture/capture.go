// Package capture implements the geometry digitization state machine:
// a click sequence accumulated for a selected category and turned into
// a GeoJSON geometry once the category's completion rule fires.
package capture

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/avetrov/geodesk/internal/model"
)

type State int

const (
	// Idle: no capture session exists.
	Idle State = iota
	// Collecting: a category is selected and clicks are being
	// accumulated. A freshly selected session is Collecting with an
	// empty click sequence.
	Collecting
	// ReadyForAttributes: the geometry is complete; the session waits
	// for attribute entry, then commit or cancel.
	ReadyForAttributes
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case ReadyForAttributes:
		return "ready_for_attributes"
	default:
		return "idle"
	}
}

// clickThresholds maps a category to the click count that completes
// its geometry automatically. Zero means completion is driven by an
// explicit finish action instead of a count.
var clickThresholds = map[model.Category]int{
	model.BusStops:      1,
	model.Stations:      1,
	model.CustomObjects: 1,
	model.Streets:       2,
	model.Districts:     0,
}

// MinRingClicks is the smallest click count a polygon finish accepts.
const MinRingClicks = 3

var (
	ErrNoSession     = errors.New("capture: no active session")
	ErrNotCollecting = errors.New("capture: session is not collecting")
	ErrNotReady      = errors.New("capture: geometry is not complete")
)

// Machine is the capture session state machine. It is not safe for
// concurrent use; the editor engine serializes access to it.
type Machine struct {
	state    State
	category model.Category
	clicks   []model.LatLng
}

func New() *Machine {
	return &Machine{state: Idle}
}

func (m *Machine) State() State             { return m.state }
func (m *Machine) Category() model.Category { return m.category }

// Clicks returns a copy of the accumulated click sequence.
func (m *Machine) Clicks() []model.LatLng {
	out := make([]model.LatLng, len(m.clicks))
	copy(out, m.clicks)
	return out
}

// Select starts a capture session for the given category. A session
// already in progress is discarded, clicks included.
func (m *Machine) Select(c model.Category) error {
	if _, err := model.ParseCategory(string(c)); err != nil {
		return err
	}
	m.state = Collecting
	m.category = c
	m.clicks = nil
	return nil
}

// Click appends a map click and evaluates the completion rule. The
// returned state is Collecting or ReadyForAttributes.
func (m *Machine) Click(p model.LatLng) (State, error) {
	if m.state != Collecting {
		if m.state == Idle {
			return m.state, ErrNoSession
		}
		return m.state, ErrNotCollecting
	}
	m.clicks = append(m.clicks, p)
	if n := clickThresholds[m.category]; n > 0 && len(m.clicks) == n {
		m.state = ReadyForAttributes
	}
	return m.state, nil
}

// Finish completes a count-less session (districts). Fewer clicks than
// a valid ring needs is a validation failure and the session remains
// collectable.
func (m *Machine) Finish() error {
	if m.state != Collecting {
		if m.state == Idle {
			return ErrNoSession
		}
		return ErrNotCollecting
	}
	if clickThresholds[m.category] != 0 {
		return model.Invalid("this object type completes by click count")
	}
	if len(m.clicks) < MinRingClicks {
		return model.Invalid("a district needs at least 3 points")
	}
	m.state = ReadyForAttributes
	return nil
}

// Geometry builds the wire geometry from the accumulated clicks.
// Coordinates are [lng, lat] in click order; polygon rings are closed
// by appending the first point when the last differs from it.
func (m *Machine) Geometry() (*geojson.Geometry, error) {
	if m.state != ReadyForAttributes {
		return nil, ErrNotReady
	}

	switch m.category.GeometryKind() {
	case model.KindPoint:
		p := m.clicks[0]
		return geojson.NewGeometry(orb.Point{p.Lng, p.Lat}), nil

	case model.KindMultiLineString:
		ls := make(orb.LineString, 0, len(m.clicks))
		for _, c := range m.clicks {
			ls = append(ls, orb.Point{c.Lng, c.Lat})
		}
		return geojson.NewGeometry(orb.MultiLineString{ls}), nil

	case model.KindPolygon:
		ring := make(orb.Ring, 0, len(m.clicks)+1)
		for _, c := range m.clicks {
			ring = append(ring, orb.Point{c.Lng, c.Lat})
		}
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		return geojson.NewGeometry(orb.Polygon{ring}), nil
	}
	return nil, ErrNotReady
}

// Reset destroys the session. Both commit and cancel end here.
func (m *Machine) Reset() {
	m.state = Idle
	m.category = ""
	m.clicks = nil
}
