package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Enricher holds the three static layers spec.md §3 names, built once at
// construction and queried for the remainder of the process's lifetime.
type Enricher struct {
	census    *layer
	districts *layer
	hexGrid   *layer
}

// Paths names the three GeoJSON files, one per GeoLayer.
type Paths struct {
	CensusTracts     string
	CouncilDistricts string
	HexGrid          string
}

// New builds the R-tree index for each of the three layers. Startup fails
// (spec.md §4.6) if any layer file is missing or fails its GeoJSON schema
// validation.
func New(paths Paths) (*Enricher, error) {
	census, err := loadLayer(LayerCensusTracts, paths.CensusTracts)
	if err != nil {
		return nil, err
	}
	districts, err := loadLayer(LayerCouncilDistricts, paths.CouncilDistricts)
	if err != nil {
		return nil, err
	}
	hexGrid, err := loadLayer(LayerHexGrid, paths.HexGrid)
	if err != nil {
		return nil, err
	}
	return &Enricher{census: census, districts: districts, hexGrid: hexGrid}, nil
}

// Lookup implements spec.md §4.6's lookup(point, layer): intersect the
// R-tree with the point to find candidate features, then test each
// candidate for exact polygon containment. Returns "" if the point falls
// outside every polygon in the layer — this never errors, matching "runtime
// point tests never fail" (spec.md §4.6).
func (e *Enricher) Lookup(lon, lat float64, name LayerName) string {
	l := e.layerFor(name)
	if l == nil {
		return ""
	}

	pt := orb.Point{lon, lat}
	for _, idx := range l.candidates(pt) {
		f := l.collection.Features[idx]
		if polygonContains(f.Geometry, pt) {
			return l.featureID(f)
		}
	}
	return ""
}

func (e *Enricher) layerFor(name LayerName) *layer {
	switch name {
	case LayerCensusTracts:
		return e.census
	case LayerCouncilDistricts:
		return e.districts
	case LayerHexGrid:
		return e.hexGrid
	default:
		return nil
	}
}

// polygonContains tests exact containment regardless of whether geom is a
// bare Polygon or a MultiPolygon (council-district and hex layers ship as
// either, depending on source).
func polygonContains(geom orb.Geometry, pt orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		for _, poly := range g {
			if planar.PolygonContains(poly, pt) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// EnrichTrip fills the six polygon-identifier fields and four coordinate
// floats spec.md §4.6/§9 calls for, silently leaving fields empty on any
// failure since enrichment must never block ingestion.
func (e *Enricher) EnrichTrip(t Enrichable) {
	startLon, startLat, startOK := t.StartCoordinates()
	endLon, endLat, endOK := t.EndCoordinates()

	if !startOK && !endOK {
		return
	}

	if startOK {
		t.SetStartCoordinates(startLon, startLat)
		t.SetCouncilDistrictStart(e.Lookup(startLon, startLat, LayerCouncilDistricts))
		t.SetCensusGeoIDStart(e.Lookup(startLon, startLat, LayerCensusTracts))
		t.SetOrigCellID(e.Lookup(startLon, startLat, LayerHexGrid))
	}
	if endOK {
		t.SetEndCoordinates(endLon, endLat)
		t.SetCouncilDistrictEnd(e.Lookup(endLon, endLat, LayerCouncilDistricts))
		t.SetCensusGeoIDEnd(e.Lookup(endLon, endLat, LayerCensusTracts))
		t.SetDestCellID(e.Lookup(endLon, endLat, LayerHexGrid))
	}
}

// Enrichable is the slice of trip.Trip's behavior EnrichTrip needs,
// narrowed to an interface so pkg/geo never imports pkg/trip directly —
// it is the caller (pkg/pipeline) that owns the concrete type and wires
// the two packages together.
type Enrichable interface {
	StartCoordinates() (lon, lat float64, ok bool)
	EndCoordinates() (lon, lat float64, ok bool)
	SetStartCoordinates(lon, lat float64)
	SetEndCoordinates(lon, lat float64)
	SetCouncilDistrictStart(id string)
	SetCouncilDistrictEnd(id string)
	SetCensusGeoIDStart(id string)
	SetCensusGeoIDEnd(id string)
	SetOrigCellID(id string)
	SetDestCellID(id string)
}
