package scheduler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cowin-slot-notifier/src/geo"
	model "github.com/cowin-slot-notifier/src/model"
)

// dateWindow returns the calendar days [today, today+days) in now's location.
func dateWindow(now time.Time, days int) []time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dates := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates
}

// flattenCenters explodes every center into one row per session. Block names
// are dropped. An unparseable session date fails the whole response.
func flattenCenters(centers []model.Center, loc *time.Location) ([]model.SessionRow, error) {
	var rows []model.SessionRow
	for _, center := range centers {
		var coordinate *geo.Coordinate
		if center.Lat != nil && center.Long != nil {
			coordinate = &geo.Coordinate{Latitude: *center.Lat, Longitude: *center.Long}
		}

		for _, session := range center.Sessions {
			date, err := time.ParseInLocation(model.DateFormat, session.Date, loc)
			if err != nil {
				return nil, fmt.Errorf("%w: session date %q at %s", model.ErrMalformedResponse, session.Date, center.Name)
			}

			capacity := int(session.AvailableCapacity)
			if capacity < 0 {
				capacity = 0
			}

			rows = append(rows, model.SessionRow{
				Date:              date,
				MinAgeLimit:       session.MinAgeLimit,
				AvailableCapacity: capacity,
				Pincode:           strconv.Itoa(center.Pincode),
				CenterName:        center.Name,
				StateName:         center.StateName,
				DistrictName:      center.DistrictName,
				FeeType:           center.FeeType,
				VaccineName:       session.Vaccine,
				Coordinate:        coordinate,
			})
		}
	}
	return rows, nil
}
