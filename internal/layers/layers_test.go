package layers

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/avetrov/geodesk/internal/model"
)

func TestIsVisible_DistrictGate(t *testing.T) {
	r := NewRegistry(nil)
	r.SetEnabled(model.Districts, true)

	cases := []struct {
		zoom int
		want bool
	}{
		{6, false},
		{7, true},
		{10, true},
		{13, true},
		{14, false},
	}
	for _, c := range cases {
		if got := r.IsVisible(model.Districts, c.zoom); got != c.want {
			t.Fatalf("IsVisible(districts, %d) = %v, want %v", c.zoom, got, c.want)
		}
	}
}

func TestIsVisible_MinOnlyGates(t *testing.T) {
	r := NewRegistry(nil)
	r.SetEnabled(model.BusStops, true)
	r.SetEnabled(model.Streets, true)

	if r.IsVisible(model.BusStops, 13) {
		t.Fatalf("bus_stops visible at zoom 13")
	}
	if !r.IsVisible(model.BusStops, 14) {
		t.Fatalf("bus_stops hidden at zoom 14")
	}
	if r.IsVisible(model.Streets, 14) {
		t.Fatalf("streets visible at zoom 14")
	}
	// no max bound
	if !r.IsVisible(model.Streets, 19) {
		t.Fatalf("streets hidden at zoom 19")
	}
}

func TestIsVisible_DisabledAlwaysHidden(t *testing.T) {
	r := NewRegistry(nil)
	r.SetEnabled(model.Districts, false)
	for _, zoom := range []int{1, 7, 10, 13, 20} {
		if r.IsVisible(model.Districts, zoom) {
			t.Fatalf("disabled layer visible at zoom %d", zoom)
		}
	}
}

func TestDefaults_OnlyCustomObjectsEnabled(t *testing.T) {
	r := NewRegistry(nil)
	for _, c := range model.Categories() {
		want := c == model.CustomObjects
		if got := r.Enabled(c); got != want {
			t.Fatalf("Enabled(%s) = %v, want %v", c, got, want)
		}
	}
	if !r.IsVisible(model.CustomObjects, 1) {
		t.Fatalf("custom_objects hidden at zoom 1")
	}
}

func TestToggle_Flips(t *testing.T) {
	r := NewRegistry(nil)
	if on := r.Toggle(model.Stations); !on {
		t.Fatalf("first toggle of stations: got off")
	}
	if on := r.Toggle(model.Stations); on {
		t.Fatalf("second toggle of stations: got on")
	}
}

func pointObj(id int64, lng, lat float64) model.GeoObject {
	return model.GeoObject{
		ID:       id,
		Geometry: geojson.NewGeometry(orb.Point{lng, lat}),
		Fields:   map[string]any{"name": "obj"},
	}
}

func baselineFC(n int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := 0; i < n; i++ {
		fc.Append(geojson.NewFeature(orb.Point{float64(i), float64(i)}))
	}
	return fc
}

func TestCompose_CountsAreAdditive(t *testing.T) {
	static := map[model.Category]*geojson.FeatureCollection{
		model.BusStops: baselineFC(3),
		model.Streets:  baselineFC(2),
	}
	dynamic := map[model.Category][]model.GeoObject{
		model.BusStops:      {pointObj(1, 37.6, 55.7), pointObj(2, 37.7, 55.8)},
		model.CustomObjects: {pointObj(5, 30, 60)},
	}

	out := Compose(static, dynamic)

	if got := len(out[model.BusStops].Features); got != 5 {
		t.Fatalf("bus_stops merged count = %d, want 5", got)
	}
	if got := len(out[model.Streets].Features); got != 2 {
		t.Fatalf("streets merged count = %d, want 2", got)
	}
	if got := len(out[model.CustomObjects].Features); got != 1 {
		t.Fatalf("custom_objects merged count = %d, want 1", got)
	}
	// empty categories are absent, not empty collections
	if _, ok := out[model.Districts]; ok {
		t.Fatalf("districts present in output despite no features")
	}
	if _, ok := out[model.Stations]; ok {
		t.Fatalf("stations present in output despite no features")
	}
}

func TestCompose_BaselineFirstNoDedup(t *testing.T) {
	// identical geometry in both sources renders twice
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{37.6, 55.7}))
	static := map[model.Category]*geojson.FeatureCollection{model.BusStops: fc}
	dynamic := map[model.Category][]model.GeoObject{
		model.BusStops: {pointObj(1, 37.6, 55.7)},
	}

	out := Compose(static, dynamic)
	feats := out[model.BusStops].Features
	if len(feats) != 2 {
		t.Fatalf("merged count = %d, want 2 (no dedup)", len(feats))
	}
	// baseline feature leads, dynamic follows
	if feats[0].ID != nil {
		t.Fatalf("first feature should be the baseline one (no id), got id %v", feats[0].ID)
	}
	if feats[1].ID != int64(1) {
		t.Fatalf("second feature id = %v, want 1", feats[1].ID)
	}
}

func TestCompose_EmptyInputs(t *testing.T) {
	out := Compose(nil, nil)
	if len(out) != 0 {
		t.Fatalf("compose of empty inputs produced %d categories", len(out))
	}
}
