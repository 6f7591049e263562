package model

// Attributes is the closed set of per-category attribute payloads. A
// variant knows its category and how to flatten itself into the wire
// body sent to the backend alongside the geometry.
type Attributes interface {
	AttrCategory() Category
	Payload() map[string]any
}

type BusStopAttrs struct {
	NameMPV  string // stop name
	Rayon    string
	AO       string
	Marshrut string // routes served
}

func (BusStopAttrs) AttrCategory() Category { return BusStops }

func (a BusStopAttrs) Payload() map[string]any {
	return map[string]any{
		"name_mpv": a.NameMPV,
		"rayon":    a.Rayon,
		"ao":       a.AO,
		"marshrut": a.Marshrut,
	}
}

type DistrictAttrs struct {
	Name   string
	NameAO string
}

func (DistrictAttrs) AttrCategory() Category { return Districts }

func (a DistrictAttrs) Payload() map[string]any {
	return map[string]any{
		"name":    a.Name,
		"name_ao": a.NameAO,
	}
}

// StationKind values follow the upstream dataset: metro stations are
// marked "М", surface (MCK/MCD) stations "Наземная".
type StationKind string

const (
	StationMetro   StationKind = "М"
	StationSurface StationKind = "Наземная"
)

type StationAttrs struct {
	NameStation string
	NameLine    string
	Kind        StationKind
}

func (StationAttrs) AttrCategory() Category { return Stations }

func (a StationAttrs) Payload() map[string]any {
	kind := a.Kind
	if kind == "" {
		kind = StationMetro
	}
	return map[string]any{
		"name_station": a.NameStation,
		"name_line":    a.NameLine,
		"type":         string(kind),
	}
}

// StreetAttrs carries the edge identifier assigned by the routing
// graph; it travels in the create body as "id" and must be numeric.
type StreetAttrs struct {
	EdgeID    int64
	StName    string
	RoadCateg string
}

func (StreetAttrs) AttrCategory() Category { return Streets }

func (a StreetAttrs) Payload() map[string]any {
	return map[string]any{
		"id":         a.EdgeID,
		"st_name":    a.StName,
		"road_categ": a.RoadCateg,
	}
}

type CustomObjectAttrs struct {
	Name        string
	Description string
	ObjectType  string
}

func (CustomObjectAttrs) AttrCategory() Category { return CustomObjects }

func (a CustomObjectAttrs) Payload() map[string]any {
	return map[string]any{
		"name":        a.Name,
		"description": a.Description,
		"object_type": a.ObjectType,
	}
}
