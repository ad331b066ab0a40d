package scheduler

import (
	"sort"

	model "github.com/cowin-slot-notifier/src/model"
)

// SortRows orders rows by date, then minimum age, then district name
// (all ascending), then available capacity descending. The sort is stable.
func SortRows(rows []model.SessionRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.MinAgeLimit != b.MinAgeLimit {
			return a.MinAgeLimit < b.MinAgeLimit
		}
		if a.DistrictName != b.DistrictName {
			return a.DistrictName < b.DistrictName
		}
		return a.AvailableCapacity > b.AvailableCapacity
	})
}

// FilterRows returns the sorted rows open to minAgeLimit with free capacity
// and, when geoFilter is set, close enough to its origin. rows is not modified.
func FilterRows(rows []model.SessionRow, minAgeLimit int, geoFilter *GeoFilter) []model.SessionRow {
	sorted := make([]model.SessionRow, len(rows))
	copy(sorted, rows)
	SortRows(sorted)

	filtered := make([]model.SessionRow, 0, len(sorted))
	for _, row := range sorted {
		if row.MinAgeLimit > minAgeLimit {
			continue
		}
		if row.AvailableCapacity <= 0 {
			continue
		}
		if geoFilter != nil && !geoFilter.Matches(row) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}
