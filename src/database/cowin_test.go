package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowin-slot-notifier/src/geo"
	model "github.com/cowin-slot-notifier/src/model"
)

func setupMockDB(t *testing.T) (*DatabaseConnection, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open("mysql", mockDB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return NewConnection(db), mock
}

func testRows() []model.SessionRow {
	date := time.Date(2021, time.May, 6, 0, 0, 0, 0, time.UTC)
	return []model.SessionRow{
		{
			Date: date, MinAgeLimit: 18, AvailableCapacity: 12, Pincode: "560076",
			CenterName: "PHC Anekal", StateName: "Karnataka", DistrictName: "Bangalore Urban",
			FeeType: "Free", VaccineName: "COVISHIELD",
			Coordinate: &geo.Coordinate{Latitude: 12.9, Longitude: 77.6},
		},
		{
			Date: date.AddDate(0, 0, 1), MinAgeLimit: 45, AvailableCapacity: 3, Pincode: "562106",
			CenterName: "CHC Attibele", StateName: "Karnataka", DistrictName: "Bangalore Urban",
			FeeType: "Paid", VaccineName: "COVAXIN",
		},
	}
}

func TestRecord_BulkInsertsInTransaction(t *testing.T) {
	conn, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `slot_records`")).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	err := conn.Record(context.Background(), "run-1", testRows())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_RollsBackOnInsertFailure(t *testing.T) {
	conn, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `slot_records`")).
		WillReturnError(errors.New("table is read only"))
	mock.ExpectRollback()

	err := conn.Record(context.Background(), "run-1", testRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bulk loading slot records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_NoRowsIsNoop(t *testing.T) {
	conn, mock := setupMockDB(t)

	require.NoError(t, conn.Record(context.Background(), "run-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrune_HardDeletesOldRecords(t *testing.T) {
	conn, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `slot_records`")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	deleted, err := conn.Prune(time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToRecords(t *testing.T) {
	records := toRecords("run-7", testRows())
	require.Len(t, records, 2)

	first := records[0].(SlotRecord)
	assert.Equal(t, "run-7", first.RunID)
	assert.Equal(t, "PHC Anekal", first.Name)
	assert.Equal(t, "COVISHIELD", first.Vaccine)
	require.NotNil(t, first.Lat)
	require.NotNil(t, first.Long)
	assert.Equal(t, 12.9, *first.Lat)
	assert.Equal(t, 77.6, *first.Long)

	second := records[1].(SlotRecord)
	assert.Equal(t, 45, second.MinAgeLimit)
	assert.Nil(t, second.Lat)
	assert.Nil(t, second.Long)
}
