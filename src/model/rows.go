package cowin

import (
	"time"

	"github.com/cowin-slot-notifier/src/geo"
)

// SessionRow is one bookable session flattened together with its center's fields.
type SessionRow struct {
	Date              time.Time
	MinAgeLimit       int
	AvailableCapacity int
	Pincode           string
	CenterName        string
	StateName         string
	DistrictName      string
	FeeType           string
	VaccineName       string

	// Coordinate is nil when the upstream record carries no location.
	Coordinate *geo.Coordinate
}
