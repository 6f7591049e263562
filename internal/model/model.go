// Package model defines core domain types shared across the service.
package model

import "fmt"

// Category is one of the five feature kinds the editor knows about.
// Values match the backend path segments under /v1/geo_objects/.
type Category string

const (
	BusStops      Category = "bus_stops"
	Districts     Category = "districts"
	Stations      Category = "stations"
	Streets       Category = "streets"
	CustomObjects Category = "custom_objects"
)

// Categories returns all known categories in a stable order.
func Categories() []Category {
	return []Category{BusStops, Districts, Stations, Streets, CustomObjects}
}

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case BusStops, Districts, Stations, Streets, CustomObjects:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// GeometryKind is the GeoJSON geometry type a category digitizes into.
type GeometryKind string

const (
	KindPoint           GeometryKind = "Point"
	KindMultiLineString GeometryKind = "MultiLineString"
	KindPolygon         GeometryKind = "Polygon"
)

func (c Category) GeometryKind() GeometryKind {
	switch c {
	case Streets:
		return KindMultiLineString
	case Districts:
		return KindPolygon
	default:
		return KindPoint
	}
}

// LatLng is a geographic coordinate as delivered by map click events.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
