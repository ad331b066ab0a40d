package scheduler

import (
	"context"

	model "github.com/cowin-slot-notifier/src/model"
)

// ByPincode polls postal codes date by date. The first failed fetch ends the
// pass, and the pass also ends as soon as a date yields a match.
func (a *Aggregator) ByPincode(ctx context.Context, days int, pincodes []string, minAgeLimit int) (*Availability, error) {
	return a.Aggregate(ctx, Query{
		Kind:                    model.Pincode,
		Keys:                    pincodes,
		Days:                    days,
		MinAgeLimit:             minAgeLimit,
		Policy:                  AbortOnError,
		StopAtFirstMatchingDate: true,
	})
}
