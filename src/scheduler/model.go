package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cowin-slot-notifier/src/geo"
	model "github.com/cowin-slot-notifier/src/model"
)

// FailurePolicy decides what a failed fetch does to the rest of a pass.
type FailurePolicy int

const (
	// ContinueOnError records the failure and moves on to the next key.
	ContinueOnError FailurePolicy = iota
	// AbortOnError ends the pass with the first failure.
	AbortOnError
)

func (p FailurePolicy) String() string {
	switch p {
	case ContinueOnError:
		return "continue"
	case AbortOnError:
		return "abort"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "continue":
		return ContinueOnError, nil
	case "abort":
		return AbortOnError, nil
	default:
		return ContinueOnError, fmt.Errorf("invalid failure policy: %s (must be continue or abort)", s)
	}
}

// GeoFilter keeps centers strictly closer than MaxDistanceKm to Origin.
type GeoFilter struct {
	Origin        geo.Coordinate
	MaxDistanceKm float64
}

func (f GeoFilter) Matches(row model.SessionRow) bool {
	if row.Coordinate == nil {
		return false
	}
	return geo.IsWithin(f.Origin, *row.Coordinate, f.MaxDistanceKm)
}

// Query describes one polling pass.
type Query struct {
	Kind        model.LocationKind
	Keys        []string
	Days        int
	MinAgeLimit int
	Geo         *GeoFilter

	Policy                  FailurePolicy
	StopAtFirstMatchingDate bool
}

// Failure is one entry of a pass's error log.
type Failure struct {
	Key model.QueryKey
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Key, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Availability is the outcome of a pass that collected at least one session.
// Failures lists the fetches that were tolerated along the way.
type Availability struct {
	Rows     []model.SessionRow
	Failures []Failure
}

// AggregateError is returned when a pass produced no sessions at all, or was
// aborted by a failure. An empty Failures list means the upstream simply had no data.
type AggregateError struct {
	Failures []Failure
}

func (e *AggregateError) Error() string {
	if len(e.Failures) == 0 {
		return "no sessions returned for any query"
	}

	details := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		details = append(details, f.Error())
	}
	return fmt.Sprintf("%d fetch(es) failed: %s", len(e.Failures), strings.Join(details, "; "))
}

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// HasFailures reports whether any fetch failed.
func (e *AggregateError) HasFailures() bool {
	return len(e.Failures) > 0
}

var (
	ErrInvalidQuery = errors.New("invalid query")
	ErrPanic        = errors.New("unhandled panic")
)
