package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cityofaustin/atd-mds-go/pkg/config"
)

// Client is a dispatched-by-version ProviderClient (spec.md §4.5): one
// base implementation shared by all three MDS client generations, with a
// per-variant param schema swapped in as data rather than a subclass.
type Client struct {
	profile config.ProviderProfile
	variant Variant
	auth    *Authenticator
	rl      *RateLimiter
	rc      *resilientClient
}

// New constructs a Client for profile, resolving its mds_version into a
// Variant and wiring auth/pacing/retry from the profile's settings.
func New(profile config.ProviderProfile) (*Client, error) {
	variant, err := ResolveVariant(profile.MDSVersion)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(profile.TimeoutSeconds) * time.Second
	httpClient := &http.Client{Timeout: timeout}

	return &Client{
		profile: profile,
		variant: variant,
		auth:    NewAuthenticator(profile.Auth, httpClient),
		rl:      NewRateLimiter(profile.DelaySeconds),
		rc:      newResilientClient(timeout, profile.MaxAttempts, 250*time.Millisecond, newCircuitBreaker(5, 10*time.Second)),
	}, nil
}

// GetTrips implements spec.md §4.5's algorithm: build params from the
// variant's schema plus param_overrides, honor delay_seconds, page through
// links.next up to maxPages, and accumulate trips.
func (c *Client) GetTrips(ctx context.Context, startTime, endTime int64, maxPages int, optional map[string]string) (TripsResult, error) {
	schema := make(map[string]string, len(ParamSchema(c.variant)))
	for k, v := range ParamSchema(c.variant) {
		schema[k] = v
	}
	for k, v := range c.profile.ParamOverrides {
		schema[k] = v
	}

	params := url.Values{}
	params.Set(schema["start_time"], fmt.Sprintf("%d", startTime))
	params.Set(schema["end_time"], fmt.Sprintf("%d", endTime))
	for k, v := range optional {
		if name, ok := schema[k]; ok {
			params.Set(name, v)
		}
	}

	endpoint := c.profile.APIBaseURL + "/trips"
	var trips []map[string]interface{}
	version := c.profile.MDSVersion
	usingNextLink := false

	for page := 0; maxPages <= 0 || page < maxPages; page++ {
		if err := c.rl.Wait(ctx); err != nil {
			return TripsResult{}, err
		}

		reqURL := endpoint
		if !usingNextLink {
			reqURL = endpoint + "?" + params.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return TripsResult{}, fmt.Errorf("provider: build request: %w", err)
		}
		headers, err := c.auth.Headers(ctx)
		if err != nil {
			return TripsResult{}, fmt.Errorf("provider: authenticate: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		outcome := c.rc.do(ctx, req)
		if !outcome.ok() {
			return TripsResult{}, fmt.Errorf("provider: get_trips failed after %d attempts: %s", c.profile.MaxAttempts, outcome.Message)
		}

		version = responseVersion(outcome.Payload, version)
		if hasTrips(outcome.Payload) {
			trips = append(trips, tripsOf(outcome.Payload)...)
		}

		if !c.profile.PagingEnabled {
			break
		}
		next := nextLink(outcome.Payload)
		if next == "" {
			break
		}
		endpoint = next
		usingNextLink = true
	}

	return TripsResult{Version: version, Trips: trips}, nil
}

func decodeJSONBody(resp *http.Response) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}
