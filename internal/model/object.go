package model

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// internal keys that are not user attributes; kept out of Fields on
// decode and rendered separately on encode.
const (
	keyID        = "id"
	keyGeometry  = "geometry"
	keyCreatedAt = "created_at"
	keyUpdatedAt = "updated_at"
)

// GeoObject is a user-created feature as the backend serves it: a flat
// JSON object carrying the server-assigned id, the geometry, audit
// timestamps, and the per-category attribute fields.
type GeoObject struct {
	ID        int64
	Geometry  *geojson.Geometry
	Fields    map[string]any
	CreatedAt string
	UpdatedAt string
}

func (o *GeoObject) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("geo object: %w", err)
	}

	out := GeoObject{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case keyID:
			if err := json.Unmarshal(v, &out.ID); err != nil {
				return fmt.Errorf("geo object id: %w", err)
			}
		case keyGeometry:
			g := &geojson.Geometry{}
			if err := json.Unmarshal(v, g); err != nil {
				return fmt.Errorf("geo object geometry: %w", err)
			}
			out.Geometry = g
		case keyCreatedAt:
			if err := json.Unmarshal(v, &out.CreatedAt); err != nil {
				return fmt.Errorf("geo object created_at: %w", err)
			}
		case keyUpdatedAt:
			if err := json.Unmarshal(v, &out.UpdatedAt); err != nil {
				return fmt.Errorf("geo object updated_at: %w", err)
			}
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("geo object field %q: %w", k, err)
			}
			out.Fields[k] = val
		}
	}
	*o = out
	return nil
}

func (o GeoObject) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(o.Fields)+4)
	for k, v := range o.Fields {
		flat[k] = v
	}
	flat[keyID] = o.ID
	if o.Geometry != nil {
		flat[keyGeometry] = o.Geometry
	}
	if o.CreatedAt != "" {
		flat[keyCreatedAt] = o.CreatedAt
	}
	if o.UpdatedAt != "" {
		flat[keyUpdatedAt] = o.UpdatedAt
	}
	return json.Marshal(flat)
}

// Properties flattens the object into the property map its rendered
// feature carries. The whole object becomes the properties, the same
// way the map page feeds user objects to the layer renderer.
func (o GeoObject) Properties() geojson.Properties {
	p := make(geojson.Properties, len(o.Fields)+3)
	for k, v := range o.Fields {
		p[k] = v
	}
	p[keyID] = o.ID
	if o.CreatedAt != "" {
		p[keyCreatedAt] = o.CreatedAt
	}
	if o.UpdatedAt != "" {
		p[keyUpdatedAt] = o.UpdatedAt
	}
	return p
}

// Feature converts the object into a renderable GeoJSON feature.
func (o GeoObject) Feature() *geojson.Feature {
	f := geojson.NewFeature(nil)
	if o.Geometry != nil {
		f.Geometry = o.Geometry.Geometry()
	}
	f.ID = o.ID
	f.Properties = o.Properties()
	return f
}
