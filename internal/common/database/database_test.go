package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE loan_applications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE loan_applications SET status = 'approved'")
		return err
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJSONCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	type profile struct {
		MonthlyIncome float64 `json:"monthlyIncome"`
	}

	var got profile
	found, err := GetJSON(ctx, rdb, "farmer:profile:f-1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, rdb, "farmer:profile:f-1", profile{MonthlyIncome: 6000}, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("farmer:profile:f-1"))

	found, err = GetJSON(ctx, rdb, "farmer:profile:f-1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 6000.0, got.MonthlyIncome)

	mr.Set("farmer:profile:f-2", "{not json")
	_, err = GetJSON(ctx, rdb, "farmer:profile:f-2", &got)
	assert.Error(t, err)
}
