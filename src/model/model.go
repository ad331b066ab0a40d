package cowin

type CowinStatesResponse struct {
	States []State `json:"states"`
}

type State struct {
	StateID   int    `json:"state_id"`
	StateName string `json:"state_name"`
}

type CowinDistrictsResponse struct {
	Districts []DistrictInfo `json:"districts"`
}

// DistrictInfo is one entry of the districts listing.
type DistrictInfo struct {
	StateID      int    `json:"state_id"`
	DistrictID   int    `json:"district_id"`
	DistrictName string `json:"district_name"`
}

// CowinSessionsResponse is the body of both calendarByDistrict and calendarByPin.
// Centers is a pointer so that an absent key can be told apart from an empty list.
type CowinSessionsResponse struct {
	Centers *[]Center `json:"centers"`
}

type Center struct {
	CenterID     int       `json:"center_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	StateName    string    `json:"state_name"`
	DistrictName string    `json:"district_name"`
	BlockName    string    `json:"block_name"`
	Pincode      int       `json:"pincode"`
	Lat          *float64  `json:"lat,omitempty"`
	Long         *float64  `json:"long,omitempty"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	FeeType      string    `json:"fee_type"`
	Sessions     []Session `json:"sessions"`
}

type Session struct {
	SessionID              string   `json:"session_id"`
	Date                   string   `json:"date"`
	AvailableCapacity      float64  `json:"available_capacity"`
	MinAgeLimit            int      `json:"min_age_limit"`
	Vaccine                string   `json:"vaccine"`
	Slots                  []string `json:"slots"`
	AvailableCapacityDose1 float64  `json:"available_capacity_dose1"`
	AvailableCapacityDose2 float64  `json:"available_capacity_dose2"`
}
