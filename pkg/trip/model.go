// Package trip implements TripModel (spec.md §3-§4.7): a typed trip
// record, its declarative validation schema, the VeoRide integer-to-UUID
// quirk, and the GraphQL insert mutation, grounded on
// original_source/MDSTrip.py.
package trip

// Trip is the tagged record spec.md §9 asks for in place of the original's
// duck-typed dict: explicit fields, explicit optional-field policy.
// Geo-enrichment fields are populated by pkg/geo after Validate.
type Trip struct {
	ProviderID      string
	ProviderName    string
	DeviceID        string
	VehicleID       string
	VehicleType     string
	TripID          string
	PropulsionType  []string
	Route           map[string]interface{}
	TripDuration    float64
	TripDistance    float64
	Accuracy        float64
	StartTime       int64
	EndTime         int64
	StandardCost    *float64
	ActualCost      *float64
	PublicationTime *int64
	ParkingVerificationURL *string
	Currency        *string

	StartLatitude  float64
	StartLongitude float64
	EndLatitude    float64
	EndLongitude   float64

	// Geo-enrichment, filled in by pkg/geo.Enricher (spec.md §4.6).
	CouncilDistrictStart *string
	CouncilDistrictEnd   *string
	OrigCellID           *string
	DestCellID           *string
	CensusGeoIDStart     *string
	CensusGeoIDEnd       *string
}

// StartCoordinates/EndCoordinates implement spec.md §8's testable
// property: for trips with a route of ≥2 features, start/end coords come
// from the first/last feature's geometry.coordinates.
func (t *Trip) StartCoordinates() (lon, lat float64, ok bool) {
	return routeCoordinates(t.Route, true)
}

func (t *Trip) EndCoordinates() (lon, lat float64, ok bool) {
	return routeCoordinates(t.Route, false)
}

// The Set* methods below satisfy pkg/geo.Enrichable, letting GeoEnricher
// populate a trip's coordinate and polygon-identifier fields without
// pkg/geo importing this package.
func (t *Trip) SetStartCoordinates(lon, lat float64) {
	t.StartLongitude, t.StartLatitude = lon, lat
}

func (t *Trip) SetEndCoordinates(lon, lat float64) {
	t.EndLongitude, t.EndLatitude = lon, lat
}

func (t *Trip) SetCouncilDistrictStart(id string) { t.CouncilDistrictStart = nilIfEmpty(id) }
func (t *Trip) SetCouncilDistrictEnd(id string)   { t.CouncilDistrictEnd = nilIfEmpty(id) }
func (t *Trip) SetCensusGeoIDStart(id string)     { t.CensusGeoIDStart = nilIfEmpty(id) }
func (t *Trip) SetCensusGeoIDEnd(id string)       { t.CensusGeoIDEnd = nilIfEmpty(id) }
func (t *Trip) SetOrigCellID(id string)           { t.OrigCellID = nilIfEmpty(id) }
func (t *Trip) SetDestCellID(id string)           { t.DestCellID = nilIfEmpty(id) }

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func routeCoordinates(route map[string]interface{}, start bool) (lon, lat float64, ok bool) {
	if route == nil {
		return 0, 0, false
	}
	features, _ := route["features"].([]interface{})
	if len(features) < 2 {
		return 0, 0, false
	}
	idx := 0
	if !start {
		idx = len(features) - 1
	}
	feature, _ := features[idx].(map[string]interface{})
	if feature == nil {
		return 0, 0, false
	}
	geometry, _ := feature["geometry"].(map[string]interface{})
	if geometry == nil {
		return 0, 0, false
	}
	coords, _ := geometry["coordinates"].([]interface{})
	if len(coords) < 2 {
		return 0, 0, false
	}
	lonF, ok1 := toFloat(coords[0])
	latF, ok2 := toFloat(coords[1])
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return lonF, latF, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
