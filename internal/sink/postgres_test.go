package sink

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/models"
)

func newPostgresSinkForTest(t *testing.T) (*PostgresSink, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresSink(db, "bmw_vehicles", "bmw_recalls", logger.NewNoOpLogger()), mock
}

func TestPostgresSink_UpsertVehicles(t *testing.T) {
	s, mock := newPostgresSinkForTest(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bmw_vehicles").
		WithArgs(testVIN, "3", 2013, "BMW", "3 Series", "", "", "", "", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpsertVehicles(context.Background(), []models.VehicleRecord{testVehicle(testVIN)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_UpsertVehiclesEmptyBatchSkipsDatabase(t *testing.T) {
	s, mock := newPostgresSinkForTest(t)

	err := s.UpsertVehicles(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_UpsertVehiclesRollsBackOnError(t *testing.T) {
	s, mock := newPostgresSinkForTest(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bmw_vehicles").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	err := s.UpsertVehicles(context.Background(), []models.VehicleRecord{testVehicle(testVIN)})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWarehouseUpsertFailed, errors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_InsertRecallsCountsNewRowsOnly(t *testing.T) {
	s, mock := newPostgresSinkForTest(t)

	mock.ExpectBegin()
	// First row is new, second hits the primary key and inserts nothing.
	mock.ExpectExec("INSERT INTO bmw_recalls").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bmw_recalls").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inserted, err := s.InsertRecalls(context.Background(), []models.RecallRecord{
		testRecall(testVIN, "21V123000"),
		testRecall(testVIN, "22V456000"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_InsertRecallsNullDateWhenMissing(t *testing.T) {
	s, mock := newPostgresSinkForTest(t)

	undated := testRecall(testVIN, "21V123000")
	undated.RecallDate = time.Time{}
	undated.HasDate = false

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bmw_recalls").
		WithArgs(testVIN, "21V123000", "FUEL SYSTEM", "", "", "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inserted, err := s.InsertRecalls(context.Background(), []models.RecallRecord{undated})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
