package schedule

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityofaustin/atd-mds-go/pkg/gqlgateway"
)

func TestQueryPendingOmitsStatusClauseWhenDisabled(t *testing.T) {
	var seenQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seenQuery = string(body)
		_, _ = w.Write([]byte(`{"data":{"api_schedule":[]}}`))
	}))
	defer srv.Close()

	repo := New(gqlgateway.New(srv.URL, "secret", time.Second))
	_, err := repo.QueryPending(context.Background(), "Sample Co",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC),
		StatusPending, OpEq, false)
	require.NoError(t, err)
	assert.NotContains(t, seenQuery, "status_id: {")
}

func TestQueryPendingOrdersByDateAscending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"api_schedule":[
			{"schedule_id":1,"provider_id":1,"year":2020,"month":1,"day":1,"hour":1,"status_id":0,"provider":{"provider_name":"Sample Co"}},
			{"schedule_id":2,"provider_id":1,"year":2020,"month":1,"day":1,"hour":2,"status_id":0,"provider":{"provider_name":"Sample Co"}}
		]}}`))
	}))
	defer srv.Close()

	repo := New(gqlgateway.New(srv.URL, "secret", time.Second))
	blocks, err := repo.QueryPending(context.Background(), "Sample Co",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 1, 3, 0, 0, 0, time.UTC),
		StatusPending, OpEq, true)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, int64(1), blocks[0].ScheduleID)
	assert.Equal(t, int64(2), blocks[1].ScheduleID)
}

func TestUpdateStatusRendersExtraFields(t *testing.T) {
	var seenQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seenQuery = string(body)
		_, _ = w.Write([]byte(`{"data":{"update_api_schedule":{"affected_rows":1}}}`))
	}))
	defer srv.Close()

	repo := New(gqlgateway.New(srv.URL, "secret", time.Second))
	affected, err := repo.UpdateStatus(context.Background(), 42, StatusDBSyncSuccess, []gqlgateway.Field{
		{Name: "records_processed", Value: 10},
		{Name: "rerun_flag", Value: false},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)
	assert.Contains(t, seenQuery, "records_processed: 10")
	assert.Contains(t, seenQuery, "rerun_flag: false")
}

func TestDeriveDBSyncStatus(t *testing.T) {
	assert.Equal(t, StatusEmptyPayload, DeriveDBSyncStatus(0, 0, 0))
	assert.Equal(t, StatusDBSyncSuccess, DeriveDBSyncStatus(10, 0, 10))
	assert.Equal(t, StatusDBSyncPartial, DeriveDBSyncStatus(7, 3, 10))
	assert.Equal(t, StatusDBSyncAllFailedHTP, DeriveDBSyncStatus(0, 10, 10))
}
