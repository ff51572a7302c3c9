package trip

import (
	"fmt"

	"github.com/cityofaustin/atd-mds-go/pkg/gqlgateway"
)

// InsertMutation renders the insert_api_trips upsert, grounded on
// original_source/MDSTrip.py's graphql_template_insert: one object literal,
// an on_conflict clause keyed on trips_trip_id_pk that republishes every
// enrichable column on conflict, and an affected_rows selection the caller
// reads back to decide whether the trip landed.
func InsertMutation(t *Trip) string {
	fields := []gqlgateway.Field{
		{Name: "trip_id", Value: t.TripID},
		{Name: "accuracy", Value: t.Accuracy},
		{Name: "device_id", Value: t.DeviceID},
		{Name: "vehicle_id", Value: t.VehicleID},
		{Name: "end_time", Value: t.EndTime},
		{Name: "propulsion_type", Value: propulsionTypeLiteral(t.PropulsionType)},
		{Name: "provider_id", Value: t.ProviderID},
		{Name: "provider_name", Value: t.ProviderName},
		{Name: "start_time", Value: t.StartTime},
		{Name: "trip_distance", Value: t.TripDistance},
		{Name: "trip_duration", Value: t.TripDuration},
		{Name: "vehicle_type", Value: t.VehicleType},
		{Name: "publication_time", Value: optInt64(t.PublicationTime)},
		{Name: "standard_cost", Value: optFloat64(t.StandardCost)},
		{Name: "actual_cost", Value: optFloat64(t.ActualCost)},
		{Name: "start_latitude", Value: t.StartLatitude},
		{Name: "start_longitude", Value: t.StartLongitude},
		{Name: "end_latitude", Value: t.EndLatitude},
		{Name: "end_longitude", Value: t.EndLongitude},
		{Name: "council_district_start", Value: optString(t.CouncilDistrictStart)},
		{Name: "council_district_end", Value: optString(t.CouncilDistrictEnd)},
		{Name: "orig_cell_id", Value: optString(t.OrigCellID)},
		{Name: "dest_cell_id", Value: optString(t.DestCellID)},
		{Name: "census_geoid_start", Value: optString(t.CensusGeoIDStart)},
		{Name: "census_geoid_end", Value: optString(t.CensusGeoIDEnd)},
	}

	return fmt.Sprintf(`mutation insertTrip {
  insert_api_trips(
    objects: {
%s    },
    on_conflict: {
      constraint: trips_trip_id_pk,
      update_columns: [
        provider_id, provider_name, device_id, vehicle_type, accuracy,
        propulsion_type, trip_id, trip_duration, trip_distance,
        start_time, end_time, council_district_start, council_district_end,
        orig_cell_id, dest_cell_id, census_geoid_start, census_geoid_end,
        start_latitude, start_longitude, end_latitude, end_longitude,
      ],
    }
  ) {
    affected_rows
  }
}`, indent(gqlgateway.RenderFields(fields)))
}

func indent(s string) string {
	return "      " + s
}

func propulsionTypeLiteral(types []string) string {
	out := "{"
	for i, s := range types {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out + "}"
}

func optString(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func optInt64(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func optFloat64(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
