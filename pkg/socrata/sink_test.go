package socrata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cityofaustin/atd-mds-go/pkg/gqlgateway"
)

func strp(s string) *string { return &s }

func TestNormalizeFlattensDeviceIDAndComputesDerivedFields(t *testing.T) {
	loc := time.UTC
	raw := rawTrip{
		TripID:               "t1",
		DeviceID:             deviceRef{ID: "dev-1"},
		VehicleType:          "scooter",
		StartTime:            "2024-03-01T10:00:00Z",
		EndTime:              "2024-03-01T11:30:00Z",
		ModifiedDate:         "2024-03-01T11:35:00Z",
		CouncilDistrictStart: strp("9"),
		CensusGeoIDEnd:       nil,
	}

	rec := normalize(raw, loc)

	if rec.DeviceID != "dev-1" {
		t.Errorf("DeviceID = %q, want dev-1", rec.DeviceID)
	}
	if rec.Year != 2024 || rec.Month != 3 || rec.Hour != 11 {
		t.Errorf("derived date fields wrong: %+v", rec)
	}
	if rec.CouncilDistrictStart != 9 {
		t.Errorf("CouncilDistrictStart = %d, want 9", rec.CouncilDistrictStart)
	}
	if rec.CensusGeoIDEnd != 0 {
		t.Errorf("CensusGeoIDEnd = %d, want 0 for null-like input", rec.CensusGeoIDEnd)
	}
}

func TestCoerceIntHandlesNullAndNonNumeric(t *testing.T) {
	if got := coerceInt(nil); got != 0 {
		t.Errorf("coerceInt(nil) = %d, want 0", got)
	}
	bad := "not-a-number"
	if got := coerceInt(&bad); got != 0 {
		t.Errorf("coerceInt(%q) = %d, want 0", bad, got)
	}
	good := "42"
	if got := coerceInt(&good); got != 42 {
		t.Errorf("coerceInt(%q) = %d, want 42", good, got)
	}
}

func TestFetchReturnsEmptySliceWhenWarehouseHasNoTrips(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"api_trips": []interface{}{}},
		})
	}))
	defer server.Close()

	gql := gqlgateway.New(server.URL, "secret", time.Second)
	sink := New(Config{ProviderName: "example"}, gql)

	records, err := sink.Fetch(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}
}

func TestUpsertEmptyListReportsZeroErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(UpsertResult{Errors: 0})
	}))
	defer server.Close()

	sink := New(Config{Endpoint: server.URL, Dataset: "abcd-1234"}, nil)

	result, err := sink.Upsert(context.Background(), []Record{})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if result.Errors != 0 {
		t.Errorf("Errors = %d, want 0", result.Errors)
	}
}

func TestUpsertNonZeroHTTPStatusReturnsPlatformError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(UpsertResult{Errors: 1})
	}))
	defer server.Close()

	sink := New(Config{Endpoint: server.URL, Dataset: "abcd-1234"}, nil)

	_, err := sink.Upsert(context.Background(), []Record{{TripID: "t1"}})
	if err == nil {
		t.Fatal("expected an error for 401 response")
	}
}
