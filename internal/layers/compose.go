package layers

import (
	"github.com/paulmach/orb/geojson"

	"github.com/avetrov/geodesk/internal/model"
)

// Compose merges the static baseline with the dynamic set into one
// renderable collection per category: baseline features first, then
// the dynamic objects converted to features, in order. No
// deduplication happens; the two id spaces are independent and
// duplicate geometries from both sources are expected to render twice.
// A category appears in the output only when the merge is non-empty.
func Compose(
	static map[model.Category]*geojson.FeatureCollection,
	dynamic map[model.Category][]model.GeoObject,
) map[model.Category]*geojson.FeatureCollection {
	out := make(map[model.Category]*geojson.FeatureCollection)

	for _, c := range model.Categories() {
		var base []*geojson.Feature
		if fc := static[c]; fc != nil {
			base = fc.Features
		}
		dyn := dynamic[c]

		if len(base)+len(dyn) == 0 {
			continue
		}

		merged := geojson.NewFeatureCollection()
		merged.Features = make([]*geojson.Feature, 0, len(base)+len(dyn))
		merged.Features = append(merged.Features, base...)
		for _, obj := range dyn {
			merged.Features = append(merged.Features, obj.Feature())
		}
		out[c] = merged
	}
	return out
}
