// Package socrata implements SocrataSink (spec.md §4.8): fetch trips from
// the warehouse for a time window, normalize them into the open-data
// dataset's flat shape, and upsert them to the Socrata platform. Grounded
// on original_source/MDSSocrata.py (query/client shape) and
// provider_full_db_sync_socrata.py (clean_trip/parse_datetimes
// normalization), replacing sodapy's Socrata client with a plain
// net/http+encoding/json client since Socrata's SODA2 upsert API is a
// single authenticated POST with no ecosystem Go client in the corpus.
package socrata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cityofaustin/atd-mds-go/internal/errkit"
	"github.com/cityofaustin/atd-mds-go/pkg/gqlgateway"
)

// Config holds the per-provider Socrata connection details, mirroring
// MDSSocrata.__init__'s SOCRATA_DATA_ENDPOINT/SOCRATA_DATASET/
// SOCRATA_APP_TOKEN/SOCRATA_KEY_ID/SOCRATA_KEY_SECRET settings.
type Config struct {
	ProviderName string
	Endpoint     string
	Dataset      string
	AppToken     string
	KeyID        string
	KeySecret    string
}

// Sink fetches from the GraphQL warehouse and upserts to Socrata.
type Sink struct {
	cfg        Config
	gql        *gqlgateway.Client
	httpClient *http.Client
}

func New(cfg Config, gql *gqlgateway.Client) *Sink {
	return &Sink{
		cfg:        cfg,
		gql:        gql,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// rawTrip is the shape api_trips projects, before normalization —
// device_id nested the way Hasura's relationship field returns it
// (spec.md §4.8: "flatten device_id from {id} to string").
type deviceRef struct {
	ID string `json:"id"`
}

type rawTrip struct {
	TripID               string    `json:"trip_id"`
	DeviceID             deviceRef `json:"device_id"`
	VehicleType          string    `json:"vehicle_type"`
	TripDuration         float64 `json:"trip_duration"`
	TripDistance         float64 `json:"trip_distance"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	ModifiedDate         string  `json:"modified_date"`
	CouncilDistrictStart *string `json:"council_district_start"`
	CouncilDistrictEnd   *string `json:"council_district_end"`
	CensusGeoIDStart     *string `json:"census_geoid_start"`
	CensusGeoIDEnd       *string `json:"census_geoid_end"`
}

// Record is the normalized, flat shape the open-data dataset expects.
type Record struct {
	TripID               string `json:"trip_id"`
	DeviceID             string `json:"device_id"`
	VehicleType          string `json:"vehicle_type"`
	TripDuration         float64 `json:"trip_duration"`
	TripDistance         float64 `json:"trip_distance"`
	StartTime            string `json:"start_time"`
	EndTime              string `json:"end_time"`
	ModifiedDate         string `json:"modified_date"`
	Year                 int    `json:"year"`
	Month                int    `json:"month"`
	Hour                 int    `json:"hour"`
	DayOfWeek            int    `json:"day_of_week"`
	CouncilDistrictStart int    `json:"council_district_start"`
	CouncilDistrictEnd   int    `json:"council_district_end"`
	CensusGeoIDStart     int    `json:"census_geoid_start"`
	CensusGeoIDEnd       int    `json:"census_geoid_end"`
}

const fetchQueryTemplate = `
query getTrips {
  api_trips(
    where: {
      end_time: { _gte: %s },
      _and: { end_time: { _lt: %s } }
    }
  ) {
    trip_id
    device_id { id }
    vehicle_type
    trip_duration
    trip_distance
    start_time
    end_time
    modified_date
    council_district_start
    council_district_end
    census_geoid_start
    census_geoid_end
  }
}`

type fetchResponse struct {
	APITrips []rawTrip `json:"api_trips"`
}

// Fetch issues the warehouse query filtered by end_time ∈ [timeMin,
// timeMax) (spec.md §4.8), and normalizes every returned trip.
func (s *Sink) Fetch(ctx context.Context, timeMin, timeMax time.Time) ([]Record, error) {
	loc := timeMin.Location()
	query := fmt.Sprintf(fetchQueryTemplate,
		gqlgateway.Value(timeMin.Format("2006-01-02T15:04:05")),
		gqlgateway.Value(timeMax.Format("2006-01-02T15:04:05")),
	)

	var resp fetchResponse
	if err := s.gql.Execute(ctx, query, &resp); err != nil {
		return nil, errkit.New(errkit.KindTransport, "socrata.Fetch", err)
	}

	records := make([]Record, 0, len(resp.APITrips))
	for _, raw := range resp.APITrips {
		records = append(records, normalize(raw, loc))
	}
	return records, nil
}

func normalize(raw rawTrip, loc *time.Location) Record {
	endTime := parseInLocation(raw.EndTime, loc)

	return Record{
		TripID:               raw.TripID,
		DeviceID:             raw.DeviceID.ID,
		VehicleType:          raw.VehicleType,
		TripDuration:         raw.TripDuration,
		TripDistance:         raw.TripDistance,
		StartTime:            formatCST(raw.StartTime, loc),
		EndTime:              endTime.Format("2006-01-02T15:04:05"),
		ModifiedDate:         formatCST(raw.ModifiedDate, loc),
		Year:                 endTime.Year(),
		Month:                int(endTime.Month()),
		Hour:                 endTime.Hour(),
		DayOfWeek:            int(endTime.Weekday()),
		CouncilDistrictStart: coerceInt(raw.CouncilDistrictStart),
		CouncilDistrictEnd:   coerceInt(raw.CouncilDistrictEnd),
		CensusGeoIDStart:     coerceInt(raw.CensusGeoIDStart),
		CensusGeoIDEnd:       coerceInt(raw.CensusGeoIDEnd),
	}
}

func parseInLocation(value string, loc *time.Location) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc)
		}
	}
	return time.Time{}
}

func formatCST(value string, loc *time.Location) string {
	return parseInLocation(value, loc).Format("2006-01-02T15:04:05")
}

// coerceInt implements spec.md §4.8's "coerce geo-id fields to integer 0
// when null-like": a nil or non-numeric district/geoid string becomes 0
// rather than failing the whole record.
func coerceInt(s *string) int {
	if s == nil || *s == "" {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(*s, "%d", &n); err != nil {
		return 0
	}
	return n
}

// UpsertResult is the platform's per-batch result, per spec.md §4.8/§4.9:
// BlockExecutor checks Errors == 0 to decide status 8 vs -8.
type UpsertResult struct {
	Errors  int `json:"Errors"`
	Created int `json:"Rows Created"`
	Updated int `json:"Rows Updated"`
	Deleted int `json:"Rows Deleted"`
}

// Upsert POSTs records to the Socrata SODA2 upsert endpoint, matching
// MDSSocrata.save()'s sodapy.Socrata.upsert call.
func (s *Sink) Upsert(ctx context.Context, records []Record) (*UpsertResult, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return nil, errkit.New(errkit.KindTransport, "socrata.Upsert", err)
	}

	url := fmt.Sprintf("%s/resource/%s.json", s.cfg.Endpoint, s.cfg.Dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errkit.New(errkit.KindTransport, "socrata.Upsert", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Token", s.cfg.AppToken)
	req.SetBasicAuth(s.cfg.KeyID, s.cfg.KeySecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errkit.New(errkit.KindTransport, "socrata.Upsert", err)
	}
	defer resp.Body.Close()

	var result UpsertResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errkit.New(errkit.KindTransport, "socrata.Upsert", fmt.Errorf("decode response: %w", err))
	}
	if resp.StatusCode >= 400 {
		return &result, errkit.New(errkit.KindPlatform, "socrata.Upsert", fmt.Errorf("http %d", resp.StatusCode))
	}
	return &result, nil
}
