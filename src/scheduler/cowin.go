// Package scheduler runs availability passes: it fetches sessions for every
// date and location, filters them, and hands the result to the notifiers.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	model "github.com/cowin-slot-notifier/src/model"
)

// Aggregator drives sequential fetches across dates and location keys.
type Aggregator struct {
	fetcher model.SessionFetcher
	now     func() time.Time
}

func NewAggregator(fetcher model.SessionFetcher) *Aggregator {
	return &Aggregator{fetcher: fetcher, now: time.Now}
}

// WithClock replaces the clock that decides which day is today.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// ByDistrict polls every district on every day of the window, tolerating
// individual failures.
func (a *Aggregator) ByDistrict(ctx context.Context, days int, districtIDs []string, minAgeLimit int, geoFilter *GeoFilter) (*Availability, error) {
	return a.Aggregate(ctx, Query{
		Kind:        model.District,
		Keys:        districtIDs,
		Days:        days,
		MinAgeLimit: minAgeLimit,
		Geo:         geoFilter,
		Policy:      ContinueOnError,
	})
}

// Aggregate runs one pass for q. Dates form the outer loop and keys the inner
// one; each fetch completes before the next starts.
func (a *Aggregator) Aggregate(ctx context.Context, q Query) (*Availability, error) {
	if q.Days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidQuery, q.Days)
	}
	if len(q.Keys) == 0 {
		return nil, fmt.Errorf("%w: no %s keys", ErrInvalidQuery, q.Kind)
	}

	start := time.Now()
	now := a.now()
	var (
		rows     []model.SessionRow
		failures []Failure
	)

	for _, date := range dateWindow(now, q.Days) {
		for _, id := range q.Keys {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			key := model.QueryKey{Kind: q.Kind, ID: id, Date: date}
			log.Debug().Str("kind", q.Kind.String()).Str("key", id).Str("date", key.DateParam()).Msg("checking availability")

			found, err := a.fetch(ctx, key, now.Location())
			if err != nil {
				failure := Failure{Key: key, Err: err}
				log.Error().Err(err).Str("kind", q.Kind.String()).Str("key", id).Str("date", key.DateParam()).Msg("fetch failed")
				if q.Policy == AbortOnError {
					return nil, &AggregateError{Failures: []Failure{failure}}
				}
				failures = append(failures, failure)
				continue
			}
			rows = append(rows, found...)
		}

		if q.StopAtFirstMatchingDate {
			if matched := FilterRows(rows, q.MinAgeLimit, q.Geo); len(matched) > 0 {
				log.Info().Str("through", date.Format(model.DateFormat)).Int("matches", len(matched)).Msg("stopping at first matching date")
				return &Availability{Rows: matched, Failures: failures}, nil
			}
		}
	}

	log.Info().
		Int("sessions", len(rows)).
		Int("failures", len(failures)).
		Dur("elapsed", time.Since(start)).
		Msg("availability pass completed")

	if len(rows) == 0 {
		return nil, &AggregateError{Failures: failures}
	}
	return &Availability{Rows: FilterRows(rows, q.MinAgeLimit, q.Geo), Failures: failures}, nil
}

func (a *Aggregator) fetch(ctx context.Context, key model.QueryKey, loc *time.Location) ([]model.SessionRow, error) {
	centers, err := a.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	return flattenCenters(centers, loc)
}
