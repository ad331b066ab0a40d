package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	"github.com/rs/zerolog/log"
	bulk "github.com/t-tiger/gorm-bulk-insert"

	model "github.com/cowin-slot-notifier/src/model"
)

const bulkChunkSize = 300

// SlotRecord is one delivered session row.
type SlotRecord struct {
	gorm.Model
	RunID             string `gorm:"index"`
	Date              time.Time
	MinAgeLimit       int
	AvailableCapacity int
	Pincode           string
	Name              string
	StateName         string
	DistrictName      string
	FeeType           string
	Vaccine           string
	Lat               *float64
	Long              *float64
}

type DatabaseConnection struct {
	Connection *gorm.DB
}

func CreateConnection(username, password, hostname, database string) (*DatabaseConnection, error) {
	dsn := username + ":" + password + "@tcp(" + hostname + ":3306)/" + database + "?parseTime=true"
	db, err := gorm.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &DatabaseConnection{Connection: db}, nil
}

// NewConnection wraps an already opened gorm handle.
func NewConnection(db *gorm.DB) *DatabaseConnection {
	return &DatabaseConnection{Connection: db}
}

func (d *DatabaseConnection) Close() error {
	return d.Connection.Close()
}

// AutoMigrateTables creates or updates the archive table.
func (d *DatabaseConnection) AutoMigrateTables() error {
	start := time.Now()
	if err := d.Connection.AutoMigrate(&SlotRecord{}).Error; err != nil {
		return fmt.Errorf("migrate slot records: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("archive tables ready")
	return nil
}

// Record stores rows under runID in one transaction.
func (d *DatabaseConnection) Record(_ context.Context, runID string, rows []model.SessionRow) error {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	records := toRecords(runID, rows)

	tx := d.Connection.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin archive transaction: %w", tx.Error)
	}
	if err := bulk.BulkInsert(tx, records, bulkChunkSize); err != nil {
		tx.Rollback()
		return fmt.Errorf("bulk loading slot records: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit archive transaction: %w", err)
	}

	log.Info().Str("run_id", runID).Int("records", len(records)).Dur("elapsed", time.Since(start)).Msg("archived results")
	return nil
}

// Prune hard-deletes records created before cutoff and returns how many went.
func (d *DatabaseConnection) Prune(cutoff time.Time) (int64, error) {
	start := time.Now()
	result := d.Connection.Unscoped().Where("created_at < ?", cutoff).Delete(&SlotRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune slot records: %w", result.Error)
	}
	log.Info().Time("cutoff", cutoff).Int64("deleted", result.RowsAffected).Dur("elapsed", time.Since(start)).Msg("pruned archive")
	return result.RowsAffected, nil
}

func toRecords(runID string, rows []model.SessionRow) []interface{} {
	records := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		record := SlotRecord{
			RunID:             runID,
			Date:              row.Date,
			MinAgeLimit:       row.MinAgeLimit,
			AvailableCapacity: row.AvailableCapacity,
			Pincode:           row.Pincode,
			Name:              row.CenterName,
			StateName:         row.StateName,
			DistrictName:      row.DistrictName,
			FeeType:           row.FeeType,
			Vaccine:           row.VaccineName,
		}
		if row.Coordinate != nil {
			lat, long := row.Coordinate.Latitude, row.Coordinate.Longitude
			record.Lat, record.Long = &lat, &long
		}
		records = append(records, record)
	}
	return records
}
