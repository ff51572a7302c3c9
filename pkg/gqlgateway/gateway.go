// Package gqlgateway is a thin typed GraphQL-over-HTTP client for the
// Hasura-fronted warehouse, grounded on
// original_source/MDSGraphQLRequest.py. No GraphQL client library appears
// anywhere in the reference corpus (storj-storj's
// github.com/graphql-go/graphql is a server-side schema library, not a
// client), so this is built directly on net/http + encoding/json, the way
// the original does it with `requests`.
package gqlgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cityofaustin/atd-mds-go/internal/errkit"
)

// Client posts queries/mutations to a single Hasura GraphQL endpoint,
// authenticating with the x-hasura-admin-secret header (the original's
// only auth mechanism for this endpoint).
type Client struct {
	endpoint   string
	adminSecret string
	httpClient *http.Client
}

// New constructs a Client. timeout bounds each individual request.
func New(endpoint, adminSecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:    endpoint,
		adminSecret: adminSecret,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type requestBody struct {
	Query string `json:"query"`
}

type responseEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

// Execute POSTs query and unmarshals the "data" field of the response into
// out. GraphQL-level errors (the "errors" array) are surfaced as a
// errkit.KindTransport error; out is left untouched in that case.
func (c *Client) Execute(ctx context.Context, query string, out interface{}) error {
	body, err := json.Marshal(requestBody{Query: query})
	if err != nil {
		return fmt.Errorf("gqlgateway: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gqlgateway: build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-hasura-admin-secret", c.adminSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errkit.New(errkit.KindTransport, "gqlgateway.Execute", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errkit.New(errkit.KindTransport, "gqlgateway.Execute", err)
	}

	if resp.StatusCode >= 400 {
		return errkit.New(errkit.KindTransport, "gqlgateway.Execute",
			fmt.Errorf("warehouse returned status %d: %s", resp.StatusCode, string(respBody)))
	}

	var env responseEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return errkit.New(errkit.KindTransport, "gqlgateway.Execute", fmt.Errorf("decode envelope: %w", err))
	}
	if len(env.Errors) > 0 {
		return errkit.New(errkit.KindTransport, "gqlgateway.Execute", fmt.Errorf("graphql errors: %s", env.Errors[0].Message))
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errkit.New(errkit.KindTransport, "gqlgateway.Execute", fmt.Errorf("decode data: %w", err))
	}
	return nil
}
