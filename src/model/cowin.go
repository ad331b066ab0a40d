package cowin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cowinAPI = "https://cdn-api.co-vin.in/"

	statesPath         = "/api/v2/admin/location/states"
	districtsPath      = "/api/v2/admin/location/districts/"
	calendarByDistrict = "/api/v2/appointment/sessions/public/calendarByDistrict"
	calendarByPincode  = "/api/v2/appointment/sessions/public/calendarByPin"
)

// CowinClient talks to the public CoWIN appointment API.
type CowinClient struct {
	client *Client
}

// NewCowinClient returns a client for the public API. A nil httpClient gets a
// default client with a 3 second timeout.
func NewCowinClient(httpClient *http.Client) (*CowinClient, error) {
	return NewCowinClientWithBaseURL(httpClient, cowinAPI)
}

func NewCowinClientWithBaseURL(httpClient *http.Client, baseURL string) (*CowinClient, error) {
	client, err := NewClient(httpClient, baseURL)
	if err != nil {
		return nil, err
	}
	return &CowinClient{client: client}, nil
}

func (c *CowinClient) addQueryParameters(key QueryKey) url.Values {
	var query = make(url.Values)
	switch key.Kind {
	case Pincode:
		query.Set("pincode", key.ID)
	default:
		query.Set("district_id", key.ID)
	}
	query.Set("date", key.DateParam())
	return query
}

func (c *CowinClient) sessionsURL(key QueryKey) *url.URL {
	path := calendarByDistrict
	if key.Kind == Pincode {
		path = calendarByPincode
	}
	return c.client.Resolve(path, c.addQueryParameters(key))
}

// URL returns the exact request URL Fetch uses for key.
func (c *CowinClient) URL(key QueryKey) string {
	return c.sessionsURL(key).String()
}

// Fetch queries the calendar endpoint for key. It never retries.
func (c *CowinClient) Fetch(ctx context.Context, key QueryKey) ([]Center, error) {
	start := time.Now()
	request, err := c.client.NewRequest(ctx, http.MethodGet, c.sessionsURL(key), nil)
	if err != nil {
		return nil, err
	}

	var response CowinSessionsResponse
	if err := c.client.DoJSON(request, &response); err != nil {
		return nil, err
	}
	if response.Centers == nil {
		return nil, fmt.Errorf("%w: no centers in response for %s", ErrMalformedResponse, key)
	}

	log.Debug().
		Str("kind", key.Kind.String()).
		Str("key", key.ID).
		Str("date", key.DateParam()).
		Int("centers", len(*response.Centers)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched sessions")
	return *response.Centers, nil
}

// GetStates lists every state known to the API, sorted by name.
func (c *CowinClient) GetStates(ctx context.Context) ([]State, error) {
	request, err := c.client.NewRequest(ctx, http.MethodGet, c.client.Resolve(statesPath, nil), nil)
	if err != nil {
		return nil, err
	}

	var response CowinStatesResponse
	if err := c.client.DoJSON(request, &response); err != nil {
		return nil, fmt.Errorf("get states: %w", err)
	}

	states := response.States
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].StateName < states[j].StateName
	})
	return states, nil
}

// GetDistricts lists the districts of one state, sorted by name.
func (c *CowinClient) GetDistricts(ctx context.Context, stateID int) ([]DistrictInfo, error) {
	path := districtsPath + strconv.Itoa(stateID)
	request, err := c.client.NewRequest(ctx, http.MethodGet, c.client.Resolve(path, nil), nil)
	if err != nil {
		return nil, err
	}

	var response CowinDistrictsResponse
	if err := c.client.DoJSON(request, &response); err != nil {
		return nil, fmt.Errorf("get districts for state %d: %w", stateID, err)
	}

	districts := response.Districts
	for i := range districts {
		if districts[i].StateID == 0 {
			districts[i].StateID = stateID
		}
	}
	sort.SliceStable(districts, func(i, j int) bool {
		return districts[i].DistrictName < districts[j].DistrictName
	})
	return districts, nil
}
