// Package staticdata loads the pre-packaged baseline layers: GeoJSON
// feature collections read once at startup and immutable for the rest
// of the session.
package staticdata

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/avetrov/geodesk/internal/model"
)

// DefaultSources maps each category to its baseline files. Stations
// aggregate three sources; custom objects have no baseline at all.
func DefaultSources() map[model.Category][]string {
	return map[model.Category][]string{
		model.BusStops:  {"bus_tram_stops.geojson"},
		model.Districts: {"districts_layer.geojson"},
		model.Stations:  {"mcd_station.geojson", "mck_station.geojson", "metro_station.geojson"},
		model.Streets:   {"StreetsPedestrian.geojson"},
	}
}

// Baseline is the loaded static data: one merged collection per
// category plus a content fingerprint used in render version keys.
type Baseline struct {
	Collections map[model.Category]*geojson.FeatureCollection
	Versions    map[model.Category]uint64
}

// Load reads and merges the baseline files under dir. A file that is
// missing or unparsable is logged and skipped; a category whose files
// all fail, or yield no features, is absent from the result. Loading
// never fails as a whole — the editor stays usable without baseline
// layers.
func Load(logger *slog.Logger, dir string, sources map[model.Category][]string) Baseline {
	if sources == nil {
		sources = DefaultSources()
	}

	out := Baseline{
		Collections: make(map[model.Category]*geojson.FeatureCollection),
		Versions:    make(map[model.Category]uint64),
	}

	for cat, files := range sources {
		merged := geojson.NewFeatureCollection()
		sum := xxhash.New()

		for _, name := range files {
			path := filepath.Join(dir, name)
			b, err := os.ReadFile(path)
			if err != nil {
				logger.Error("baseline file unreadable", "category", string(cat), "file", name, "err", err)
				continue
			}
			fc, err := geojson.UnmarshalFeatureCollection(b)
			if err != nil {
				logger.Error("baseline file unparsable", "category", string(cat), "file", name, "err", err)
				continue
			}
			merged.Features = append(merged.Features, fc.Features...)
			_, _ = sum.Write(b)
		}

		if len(merged.Features) == 0 {
			continue
		}
		out.Collections[cat] = merged
		out.Versions[cat] = sum.Sum64()
		logger.Info("baseline layer loaded",
			"category", string(cat),
			"files", len(files),
			"features", len(merged.Features))
	}
	return out
}
