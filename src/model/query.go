package cowin

import (
	"context"
	"fmt"
	"time"
)

// DateFormat is the DD-MM-YYYY layout the appointment API uses for dates.
const DateFormat = "02-01-2006"

// LocationKind selects which location scheme a query uses.
type LocationKind int

const (
	District LocationKind = iota
	Pincode
)

func (k LocationKind) String() string {
	switch k {
	case District:
		return "district"
	case Pincode:
		return "pincode"
	default:
		return fmt.Sprintf("LocationKind(%d)", int(k))
	}
}

// ParseLocationKind parses "district" or "pincode".
func ParseLocationKind(s string) (LocationKind, error) {
	switch s {
	case "district":
		return District, nil
	case "pincode":
		return Pincode, nil
	default:
		return District, fmt.Errorf("invalid search mode: %s (must be district or pincode)", s)
	}
}

// QueryKey identifies a single fetch: one location on one calendar date.
type QueryKey struct {
	Kind LocationKind
	ID   string
	Date time.Time
}

// DateParam renders the key's date the way the API expects it.
func (k QueryKey) DateParam() string {
	return k.Date.Format(DateFormat)
}

func (k QueryKey) String() string {
	return fmt.Sprintf("%s=%s date=%s", k.Kind, k.ID, k.DateParam())
}

// SessionFetcher performs one fetch for a QueryKey and returns the raw centers.
type SessionFetcher interface {
	Fetch(ctx context.Context, key QueryKey) ([]Center, error)
}

// SessionFetcherFunc adapts a function to SessionFetcher.
type SessionFetcherFunc func(ctx context.Context, key QueryKey) ([]Center, error)

func (f SessionFetcherFunc) Fetch(ctx context.Context, key QueryKey) ([]Center, error) {
	return f(ctx, key)
}
