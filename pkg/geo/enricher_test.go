package geo

import (
	"os"
	"path/filepath"
	"testing"
)

// square fixture covering roughly lon [0,1] lat [0,1], "GEOID10": "square-1".
const squareLayerJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"GEOID10": "square-1", "district_n": "1", "id": "hex-1"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]
      }
    }
  ]
}`

func writeFixture(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "layer.geojson")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestEnricher(t *testing.T) *Enricher {
	t.Helper()
	path := writeFixture(t, squareLayerJSON)
	e, err := New(Paths{CensusTracts: path, CouncilDistricts: path, HexGrid: path})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func TestLookupReturnsIdentifierForPointInsidePolygon(t *testing.T) {
	e := newTestEnricher(t)

	got := e.Lookup(0.5, 0.5, LayerCensusTracts)
	if got != "square-1" {
		t.Errorf("Lookup inside polygon = %q, want %q", got, "square-1")
	}
}

func TestLookupReturnsEmptyForPointOutsideAllPolygons(t *testing.T) {
	e := newTestEnricher(t)

	got := e.Lookup(10, 10, LayerCensusTracts)
	if got != "" {
		t.Errorf("Lookup outside all polygons = %q, want empty", got)
	}
}

func TestLookupUsesDistrictNPropertyForCouncilDistricts(t *testing.T) {
	e := newTestEnricher(t)

	got := e.Lookup(0.5, 0.5, LayerCouncilDistricts)
	if got != "1" {
		t.Errorf("Lookup council district = %q, want %q", got, "1")
	}
}

func TestNewFailsWhenLayerFileMissing(t *testing.T) {
	_, err := New(Paths{CensusTracts: "/nonexistent/path.geojson", CouncilDistricts: "x", HexGrid: "x"})
	if err == nil {
		t.Fatal("expected error for missing layer file, got nil")
	}
}

type fakeTrip struct {
	startLon, startLat, endLon, endLat float64
	startOK, endOK                     bool

	councilStart, councilEnd, censusStart, censusEnd, origCell, destCell string
}

func (f *fakeTrip) StartCoordinates() (float64, float64, bool) { return f.startLon, f.startLat, f.startOK }
func (f *fakeTrip) EndCoordinates() (float64, float64, bool)   { return f.endLon, f.endLat, f.endOK }
func (f *fakeTrip) SetStartCoordinates(lon, lat float64)       { f.startLon, f.startLat = lon, lat }
func (f *fakeTrip) SetEndCoordinates(lon, lat float64)         { f.endLon, f.endLat = lon, lat }
func (f *fakeTrip) SetCouncilDistrictStart(id string)          { f.councilStart = id }
func (f *fakeTrip) SetCouncilDistrictEnd(id string)            { f.councilEnd = id }
func (f *fakeTrip) SetCensusGeoIDStart(id string)              { f.censusStart = id }
func (f *fakeTrip) SetCensusGeoIDEnd(id string)                { f.censusEnd = id }
func (f *fakeTrip) SetOrigCellID(id string)                    { f.origCell = id }
func (f *fakeTrip) SetDestCellID(id string)                    { f.destCell = id }

func TestEnrichTripPopulatesAllSixIdentifiersWhenBothEndsResolve(t *testing.T) {
	e := newTestEnricher(t)
	tr := &fakeTrip{startLon: 0.25, startLat: 0.25, startOK: true, endLon: 0.75, endLat: 0.75, endOK: true}

	e.EnrichTrip(tr)

	if tr.councilStart != "1" || tr.censusStart != "square-1" || tr.origCell != "hex-1" {
		t.Errorf("start enrichment incomplete: %+v", tr)
	}
	if tr.councilEnd != "1" || tr.censusEnd != "square-1" || tr.destCell != "hex-1" {
		t.Errorf("end enrichment incomplete: %+v", tr)
	}
}

func TestEnrichTripNoOpsWhenNeitherEndResolves(t *testing.T) {
	e := newTestEnricher(t)
	tr := &fakeTrip{}

	e.EnrichTrip(tr)

	if tr.councilStart != "" || tr.censusEnd != "" {
		t.Errorf("expected no enrichment, got: %+v", tr)
	}
}
