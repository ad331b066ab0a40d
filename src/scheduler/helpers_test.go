package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	model "github.com/cowin-slot-notifier/src/model"
	"github.com/cowin-slot-notifier/src/notify"
)

var testNow = time.Date(2021, time.May, 6, 10, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2021, time.May, 6+offset, 0, 0, 0, 0, time.UTC)
}

type fetchResult struct {
	centers []model.Center
	err     error
}

// fakeFetcher answers from a table keyed by "id@DD-MM-YYYY" and records every call.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string]fetchResult
	calls   []model.QueryKey
	panics  bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{results: map[string]fetchResult{}}
}

func resultKey(id string, date time.Time) string {
	return id + "@" + date.Format(model.DateFormat)
}

func (f *fakeFetcher) on(id string, date time.Time, centers ...model.Center) *fakeFetcher {
	f.results[resultKey(id, date)] = fetchResult{centers: centers}
	return f
}

func (f *fakeFetcher) fail(id string, date time.Time, err error) *fakeFetcher {
	f.results[resultKey(id, date)] = fetchResult{err: err}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, key model.QueryKey) ([]model.Center, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if f.panics {
		panic("unexpected nil center")
	}
	r, ok := f.results[resultKey(key.ID, key.Date)]
	if !ok {
		return []model.Center{}, nil
	}
	return r.centers, r.err
}

func center(name, district string, pincode int, sessions ...model.Session) model.Center {
	return model.Center{
		Name:         name,
		StateName:    "Karnataka",
		DistrictName: district,
		BlockName:    "South",
		Pincode:      pincode,
		FeeType:      "Free",
		Sessions:     sessions,
	}
}

func session(date time.Time, minAge int, capacity float64) model.Session {
	return model.Session{
		Date:              date.Format(model.DateFormat),
		MinAgeLimit:       minAge,
		AvailableCapacity: capacity,
		Vaccine:           "COVISHIELD",
	}
}

func row(date time.Time, minAge, capacity int, district string) model.SessionRow {
	return model.SessionRow{
		Date:              date,
		MinAgeLimit:       minAge,
		AvailableCapacity: capacity,
		DistrictName:      district,
		CenterName:        fmt.Sprintf("%s-%d-%d", district, minAge, capacity),
	}
}

type fakeDispatcher struct {
	mu       sync.Mutex
	payloads []notify.Payload
	err      error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, p notify.Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, p)
	return d.err
}

type fakeRecorder struct {
	runIDs []string
	rows   [][]model.SessionRow
	err    error
}

func (r *fakeRecorder) Record(ctx context.Context, runID string, rows []model.SessionRow) error {
	r.runIDs = append(r.runIDs, runID)
	r.rows = append(r.rows, rows)
	return r.err
}
