package trip

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// mutationPayload is the JSON shape MutationHash canonicalizes: every
// column InsertMutation renders, as a plain value rather than a rendered
// GraphQL literal, so two trips with the same data hash identically
// regardless of struct field order or pointer identity.
type mutationPayload struct {
	TripID                string   `json:"trip_id"`
	ProviderID             string   `json:"provider_id"`
	ProviderName           string   `json:"provider_name"`
	DeviceID               string   `json:"device_id"`
	VehicleID              string   `json:"vehicle_id"`
	VehicleType            string   `json:"vehicle_type"`
	PropulsionType         []string `json:"propulsion_type"`
	Accuracy               float64  `json:"accuracy"`
	StartTime              int64    `json:"start_time"`
	EndTime                int64    `json:"end_time"`
	TripDistance           float64  `json:"trip_distance"`
	TripDuration           float64  `json:"trip_duration"`
	StandardCost           *float64 `json:"standard_cost,omitempty"`
	ActualCost             *float64 `json:"actual_cost,omitempty"`
	PublicationTime        *int64   `json:"publication_time,omitempty"`
	StartLatitude          float64  `json:"start_latitude"`
	StartLongitude         float64  `json:"start_longitude"`
	EndLatitude            float64  `json:"end_latitude"`
	EndLongitude           float64  `json:"end_longitude"`
	CouncilDistrictStart   *string  `json:"council_district_start,omitempty"`
	CouncilDistrictEnd     *string  `json:"council_district_end,omitempty"`
	OrigCellID             *string  `json:"orig_cell_id,omitempty"`
	DestCellID             *string  `json:"dest_cell_id,omitempty"`
	CensusGeoIDStart       *string  `json:"census_geoid_start,omitempty"`
	CensusGeoIDEnd         *string  `json:"census_geoid_end,omitempty"`
}

// MutationHash returns a SHA-256 hex digest of t's mutation field values
// (mutationPayload), canonicalized with RFC 8785 JSON Canonicalization
// (gowebpki/jcs) so field ordering never affects the hash. BlockExecutor
// records this in each per-trip error entry whose insert failed
// (SPEC_FULL.md §B.8) so a re-run can compare a previously-failed
// trip's current hash against the recorded one before deciding to retry it
// — original_source/MDSTrip.py recomputes and resubmits blindly on every
// retry.
func MutationHash(t *Trip) (string, error) {
	payload := mutationPayload{
		TripID:               t.TripID,
		ProviderID:           t.ProviderID,
		ProviderName:         t.ProviderName,
		DeviceID:             t.DeviceID,
		VehicleID:            t.VehicleID,
		VehicleType:          t.VehicleType,
		PropulsionType:       t.PropulsionType,
		Accuracy:             t.Accuracy,
		StartTime:            t.StartTime,
		EndTime:              t.EndTime,
		TripDistance:         t.TripDistance,
		TripDuration:         t.TripDuration,
		StandardCost:         t.StandardCost,
		ActualCost:           t.ActualCost,
		PublicationTime:      t.PublicationTime,
		StartLatitude:        t.StartLatitude,
		StartLongitude:       t.StartLongitude,
		EndLatitude:          t.EndLatitude,
		EndLongitude:         t.EndLongitude,
		CouncilDistrictStart: t.CouncilDistrictStart,
		CouncilDistrictEnd:   t.CouncilDistrictEnd,
		OrigCellID:           t.OrigCellID,
		DestCellID:           t.DestCellID,
		CensusGeoIDStart:     t.CensusGeoIDStart,
		CensusGeoIDEnd:       t.CensusGeoIDEnd,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
