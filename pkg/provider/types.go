// Package provider implements ProviderClient (spec.md §4.5): a
// version-dispatched HTTP client over the three MDS API generations, with
// per-version param schemas, pluggable auth, pacing, paging, and
// retry/circuit-breaking, grounded on original_source/mds/MDSClientBase.py,
// mds/clients/MDSClient{020,030}.py, and the teacher's
// pkg/util/resiliency/client.go.
package provider

// TripsResult is the shape get_trips returns: the MDS version the server
// actually reported, plus the accumulated trips across however many pages
// were followed (spec.md §4.5 step 5).
type TripsResult struct {
	Version string
	Trips   []map[string]interface{}
}

// requestOutcome mirrors MDSClientBase._request's three-way classification
// (success / http error / timeout), spec.md §4.5 step 3.
type requestOutcome struct {
	StatusCode int
	Payload    map[string]interface{}
	Message    string
}

func (o requestOutcome) ok() bool { return o.StatusCode == 200 }

func hasTrips(payload map[string]interface{}) bool {
	trips := tripsOf(payload)
	return len(trips) > 0
}

func tripsOf(payload map[string]interface{}) []map[string]interface{} {
	data, _ := payload["data"].(map[string]interface{})
	raw, _ := data["trips"].([]interface{})
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func nextLink(payload map[string]interface{}) string {
	links, _ := payload["links"].(map[string]interface{})
	next, _ := links["next"].(string)
	return next
}

func responseVersion(payload map[string]interface{}, fallback string) string {
	if v, ok := payload["version"].(string); ok && v != "" {
		return v
	}
	return fallback
}
