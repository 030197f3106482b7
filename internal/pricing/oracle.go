// Package pricing looks up comparable cash fares for award deals. Backends
// implement Oracle; the pipeline only depends on this interface.
package pricing

import (
	"context"

	"github.com/pointfindr/points-cli/internal/model"
)

// Fare is one cash-priced flight returned by an oracle. Ordering within a
// quote is oracle-defined; by contract the first fare is the cheapest.
type Fare struct {
	Price         float64 `json:"price"`
	DepartureTime string  `json:"departure_time,omitempty"`
	FlightID      string  `json:"flight_id,omitempty"`
}

// Oracle quotes one-way cash fares for a route, date and cabin.
type Oracle interface {
	Name() string
	Quote(ctx context.Context, route model.Route, date string, cabin model.Cabin) ([]Fare, error)
}
