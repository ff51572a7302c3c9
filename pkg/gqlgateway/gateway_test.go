package gqlgateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteDecodesDataField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-hasura-admin-secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"api_schedule":[{"schedule_id":1}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second)

	var out struct {
		APISchedule []struct {
			ScheduleID int `json:"schedule_id"`
		} `json:"api_schedule"`
	}
	err := c.Execute(context.Background(), "query { api_schedule { schedule_id } }", &out)
	require.NoError(t, err)
	require.Len(t, out.APISchedule, 1)
	assert.Equal(t, 1, out.APISchedule[0].ScheduleID)
}

func TestExecuteSurfacesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"field not found"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second)
	err := c.Execute(context.Background(), "query { bogus }", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field not found")
}

func TestExecuteHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second)
	err := c.Execute(context.Background(), "query {}", nil)
	require.Error(t, err)
}
