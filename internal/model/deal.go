package model

import "fmt"

// Cabin is a canonical fare class bucket.
type Cabin string

const (
	CabinEconomy  Cabin = "economy"
	CabinPremium  Cabin = "premium"
	CabinBusiness Cabin = "business"
	CabinFirst    Cabin = "first"
)

// CabinOrder is the fixed preference order used for ranking and display.
var CabinOrder = []Cabin{CabinEconomy, CabinPremium, CabinBusiness, CabinFirst}

// SourceMultiple marks a deal whose cabin offers came from more than one source.
const SourceMultiple = "multiple"

// Route is an ordered origin/destination pair of IATA codes.
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func (r Route) String() string {
	return fmt.Sprintf("%s -> %s", r.Origin, r.Destination)
}

// CabinOffer is a single award offer for one cabin. Offers are immutable once
// produced; the merge step replaces them wholesale, never field by field.
type CabinOffer struct {
	Points        int      `json:"points"`
	Fees          string   `json:"fees,omitempty"`
	Seats         int      `json:"seats,omitempty"`
	Direct        bool     `json:"direct"`
	DepartureTime string   `json:"departure_time,omitempty"`
	ArrivalTime   string   `json:"arrival_time,omitempty"`
	FlightNumbers []string `json:"flight_numbers,omitempty"`

	// Enrichment fields, populated by the pricing stage. Nil pointers mean
	// the lookup never ran; an unavailable PriceMark means it ran and found
	// no exact match.
	CheapestCashPrice *float64   `json:"cheapest_cash_price,omitempty"`
	CheapestCPP       *float64   `json:"cheapest_cpp,omitempty"`
	ExactCashPrice    *PriceMark `json:"exact_cash_price,omitempty"`
	ExactCPP          *PriceMark `json:"exact_cpp,omitempty"`
}

// PriceMark is a looked-up value that distinguishes "checked and found none"
// from "never checked". It marshals as the number when available and as the
// string "N/A" otherwise.
type PriceMark struct {
	Available bool
	Value     float64
}

// MarshalJSON emits the value or "N/A".
func (p PriceMark) MarshalJSON() ([]byte, error) {
	if !p.Available {
		return []byte(`"N/A"`), nil
	}
	return fmt.Appendf(nil, "%g", p.Value), nil
}

// UnmarshalJSON accepts either a number or the "N/A" sentinel.
func (p *PriceMark) UnmarshalJSON(data []byte) error {
	if string(data) == `"N/A"` || string(data) == "null" {
		*p = PriceMark{}
		return nil
	}
	var v float64
	if _, err := fmt.Sscanf(string(data), "%g", &v); err != nil {
		return fmt.Errorf("price mark: parse %q: %w", string(data), err)
	}
	*p = PriceMark{Available: true, Value: v}
	return nil
}

// Marked wraps a value in an available PriceMark.
func Marked(v float64) *PriceMark {
	return &PriceMark{Available: true, Value: v}
}

// Unavailable returns a PriceMark recording that a lookup ran and found nothing.
func Unavailable() *PriceMark {
	return &PriceMark{}
}

// RawDeal is an unnormalized record as produced by one source. It carries the
// source's own program naming; it is discarded once folded into a Deal.
type RawDeal struct {
	Date          string               `json:"date"`
	Program       string               `json:"program"`
	Route         Route                `json:"route"`
	Cabins        map[Cabin]CabinOffer `json:"cabins,omitempty"`
	DepartureTime string               `json:"departure_time,omitempty"`
	ArrivalTime   string               `json:"arrival_time,omitempty"`
	Source        string               `json:"source"`
}

// Deal is the canonical, deduplicated award-availability record for one
// date/route/program (optionally refined by flight times).
type Deal struct {
	Date          string                `json:"date"`
	Program       string                `json:"program"`
	Route         Route                 `json:"route"`
	Cabins        map[Cabin]*CabinOffer `json:"cabins"`
	DepartureTime string                `json:"departure_time,omitempty"`
	ArrivalTime   string                `json:"arrival_time,omitempty"`
	Source        string                `json:"source"`
}

// Offer returns the offer for the given cabin, or nil.
func (d *Deal) Offer(c Cabin) *CabinOffer {
	if d.Cabins == nil {
		return nil
	}
	return d.Cabins[c]
}

// SetOffer stores an offer for the given cabin.
func (d *Deal) SetOffer(c Cabin, o *CabinOffer) {
	if d.Cabins == nil {
		d.Cabins = make(map[Cabin]*CabinOffer, len(CabinOrder))
	}
	d.Cabins[c] = o
}

// BestPoints returns the points value of the first populated cabin in
// preference order, and whether any cabin has a points value at all.
func (d *Deal) BestPoints() (int, bool) {
	for _, c := range CabinOrder {
		if o := d.Offer(c); o != nil && o.Points > 0 {
			return o.Points, true
		}
	}
	return 0, false
}
