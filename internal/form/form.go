// Package form declares the per-category attribute schemas and turns a
// flat attribute mapping into the typed payload the commit step sends.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/avetrov/geodesk/internal/model"
)

// Field describes one attribute input for a category.
type Field struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Numeric  bool   `json:"numeric,omitempty"`
	// UserEntry is false for fields the user never types in, like the
	// street edge id assigned by the routing graph.
	UserEntry bool `json:"userEntry"`
}

// labels carry the display names of the upstream dataset.
var labels = map[string]string{
	"name_mpv":     "Название остановки",
	"rayon":        "Район",
	"ao":           "Административный округ",
	"marshrut":     "Маршруты",
	"name":         "Название",
	"name_ao":      "Название округа",
	"name_station": "Название станции",
	"name_line":    "Линия",
	"st_name":      "Название улицы",
	"road_categ":   "Категория дороги",
	"description":  "Описание",
	"object_type":  "Тип объекта",
}

func field(key string, required, userEntry bool) Field {
	return Field{Key: key, Label: labels[key], Required: required, UserEntry: userEntry}
}

// Fields returns the attribute schema for a category.
func Fields(c model.Category) ([]Field, error) {
	switch c {
	case model.BusStops:
		return []Field{
			field("name_mpv", true, true),
			field("rayon", true, true),
			field("ao", true, true),
			field("marshrut", true, true),
		}, nil
	case model.Districts:
		return []Field{
			field("name", true, true),
			field("name_ao", true, true),
		}, nil
	case model.Stations:
		return []Field{
			field("name_station", true, true),
			field("name_line", true, true),
			field("station_type", false, true),
		}, nil
	case model.Streets:
		return []Field{
			{Key: "id", Label: "EdgeId", Required: true, Numeric: true, UserEntry: false},
			field("st_name", true, true),
			field("road_categ", true, true),
		}, nil
	case model.CustomObjects:
		return []Field{
			field("name", true, true),
			field("description", false, true),
			field("object_type", false, true),
		}, nil
	}
	return nil, fmt.Errorf("unknown category %q", c)
}

// Build validates the flat attribute mapping against the category
// schema and produces the typed payload. Keys outside the schema are
// dropped. Failures are validation errors: the capture session is
// expected to survive them.
func Build(c model.Category, in map[string]any) (model.Attributes, error) {
	var attrs model.Attributes
	switch c {
	case model.BusStops:
		attrs = model.BusStopAttrs{
			NameMPV:  str(in["name_mpv"]),
			Rayon:    str(in["rayon"]),
			AO:       str(in["ao"]),
			Marshrut: str(in["marshrut"]),
		}

	case model.Districts:
		attrs = model.DistrictAttrs{
			Name:   str(in["name"]),
			NameAO: str(in["name_ao"]),
		}

	case model.Stations:
		kind, err := stationKind(in["type"], in["station_type"])
		if err != nil {
			return nil, err
		}
		attrs = model.StationAttrs{
			NameStation: str(in["name_station"]),
			NameLine:    str(in["name_line"]),
			Kind:        kind,
		}

	case model.Streets:
		edgeID, err := numericID(in["id"])
		if err != nil {
			return nil, err
		}
		attrs = model.StreetAttrs{
			EdgeID:    edgeID,
			StName:    str(in["st_name"]),
			RoadCateg: str(in["road_categ"]),
		}

	case model.CustomObjects:
		attrs = model.CustomObjectAttrs{
			Name:        str(in["name"]),
			Description: str(in["description"]),
			ObjectType:  str(in["object_type"]),
		}

	default:
		return nil, fmt.Errorf("unknown category %q", c)
	}

	if err := checkRequired(c, attrs.Payload()); err != nil {
		return nil, err
	}
	return attrs, nil
}

// checkRequired sweeps the category schema so every field the schema
// marks required is enforced, not just the name field. Non-string
// payload values (the numeric street id) are validated at parse time.
func checkRequired(c model.Category, payload map[string]any) error {
	fields, err := Fields(c)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if s, ok := payload[f.Key].(string); ok && s == "" {
			return model.Invalid(fmt.Sprintf("%s: field %q is required", c, f.Key))
		}
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// numericID accepts the identifier as a JSON number or as text; text
// that does not parse to an integer is a validation failure.
func numericID(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, model.Invalid("id (EdgeId) must be a number")
		}
		return n, nil
	case nil:
		return 0, model.Invalid("id (EdgeId) is required")
	}
	return 0, model.Invalid("id (EdgeId) must be a number")
}

func stationKind(vals ...any) (model.StationKind, error) {
	for _, v := range vals {
		s := str(v)
		if s == "" {
			continue
		}
		switch s {
		case string(model.StationMetro), "metro":
			return model.StationMetro, nil
		case string(model.StationSurface), "surface":
			return model.StationSurface, nil
		default:
			return "", model.Invalid(fmt.Sprintf("unknown station type %q", s))
		}
	}
	return model.StationMetro, nil
}
