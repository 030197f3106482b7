package model

// Filters narrows a deal search. Zero values mean "no filter". Sources that
// understand a filter apply it server-side; the pipeline post-filters for the
// rest.
type Filters struct {
	Programs         []string `json:"programs,omitempty"`
	Alliances        []string `json:"alliances,omitempty"`
	TransferPartners []string `json:"transfer_partners,omitempty"`
	PointsMin        int      `json:"points_min,omitempty"`
	PointsMax        int      `json:"points_max,omitempty"`
	Days             int      `json:"days,omitempty"` // extra days searched around the start date
}

// Query is one deal-search invocation.
type Query struct {
	Origins      []string `json:"origins"`
	Destinations []string `json:"destinations"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Filters      Filters  `json:"filters,omitempty"`
}

// Result is the ranked output of a search, shaped for the JSON boundary.
type Result struct {
	AllDeals     []Deal `json:"all_deals"`
	CheapestDeal *Deal  `json:"cheapest_deal"`
}

// Cheapest returns the top-ranked deal, or nil when the search found none.
func (r *Result) Cheapest() *Deal {
	if len(r.AllDeals) == 0 {
		return nil
	}
	return &r.AllDeals[0]
}
