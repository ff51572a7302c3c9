package runlock

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRegistryAcquireSucceedsOnFirstHolder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewPostgresRegistry(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO block_locks (schedule_id, stage, holder)")).
		WithArgs(int64(42), "extract", "worker-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := r.Acquire(context.Background(), 42, StageExtract, "worker-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgresRegistryAcquireFailsWhenAlreadyHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewPostgresRegistry(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO block_locks (schedule_id, stage, holder)")).
		WithArgs(int64(42), "extract", "worker-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := r.Acquire(context.Background(), 42, StageExtract, "worker-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresRegistryRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewPostgresRegistry(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM block_locks WHERE schedule_id = $1 AND stage = $2 AND holder = $3")).
		WithArgs(int64(42), "extract", "worker-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Release(context.Background(), 42, StageExtract, "worker-1"))
}
