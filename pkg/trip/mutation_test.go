package trip

import (
	"strings"
	"testing"
)

func strptr(s string) *string { return &s }

func TestInsertMutationContainsOnConflictAndCoreFields(t *testing.T) {
	tr := &Trip{
		TripID:          "trip-1",
		ProviderID:      "prov-1",
		ProviderName:    "Example Inc.",
		DeviceID:        "dev-1",
		VehicleID:       "veh-1",
		VehicleType:     "scooter",
		PropulsionType:  []string{"electric"},
		Accuracy:        5,
		StartTime:       1000,
		EndTime:         2000,
		TripDistance:    120.5,
		TripDuration:    90,
		StartLatitude:   30.1,
		StartLongitude:  -97.7,
		EndLatitude:     30.2,
		EndLongitude:    -97.8,
		CouncilDistrictStart: strptr("9"),
	}

	q := InsertMutation(tr)

	for _, want := range []string{
		"insert_api_trips",
		`trip_id: "trip-1"`,
		"constraint: trips_trip_id_pk",
		"affected_rows",
		`council_district_start: "9"`,
		"propulsion_type: \"{electric}\"",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("InsertMutation() missing %q, got:\n%s", want, q)
		}
	}
}

func TestInsertMutationRendersNullForMissingOptionalFields(t *testing.T) {
	tr := &Trip{TripID: "trip-2"}
	q := InsertMutation(tr)
	if !strings.Contains(q, "standard_cost: null") {
		t.Errorf("expected standard_cost: null, got:\n%s", q)
	}
	if !strings.Contains(q, "council_district_start: null") {
		t.Errorf("expected council_district_start: null, got:\n%s", q)
	}
}
