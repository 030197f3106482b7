package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/internal/parse"
	"github.com/pointfindr/points-cli/pkg/amadeus"
)

// travelClasses maps canonical cabins onto Amadeus travel classes.
var travelClasses = map[model.Cabin]string{
	model.CabinEconomy:  "ECONOMY",
	model.CabinPremium:  "PREMIUM_ECONOMY",
	model.CabinBusiness: "BUSINESS",
	model.CabinFirst:    "FIRST",
}

// Amadeus quotes cash fares via the Amadeus flight offers API. Amadeus does
// not guarantee price ordering, so quotes are sorted cheapest-first here to
// satisfy the oracle contract.
type Amadeus struct {
	client amadeus.Client
}

// NewAmadeus creates the Amadeus oracle.
func NewAmadeus(client amadeus.Client) *Amadeus {
	return &Amadeus{client: client}
}

func (o *Amadeus) Name() string { return "amadeus" }

func (o *Amadeus) Quote(ctx context.Context, route model.Route, date string, cabin model.Cabin) ([]Fare, error) {
	class, ok := travelClasses[cabin]
	if !ok {
		return nil, eris.Errorf("amadeus oracle: unknown cabin %q", cabin)
	}

	offers, err := o.client.FlightOffers(ctx, amadeus.OffersRequest{
		Origin:      route.Origin,
		Destination: route.Destination,
		Date:        date,
		TravelClass: class,
	})
	if err != nil {
		return nil, eris.Wrap(err, "amadeus oracle: quote")
	}

	fares := make([]Fare, 0, len(offers))
	for _, offer := range offers {
		price, ok := parse.Money(offer.Price.GrandTotal)
		if !ok || len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
			continue
		}
		first := offer.Itineraries[0].Segments[0]
		fares = append(fares, Fare{
			Price:         price,
			DepartureTime: first.Departure.At,
			FlightID:      fmt.Sprintf("%s %s", first.CarrierCode, first.Number),
		})
	}

	sort.SliceStable(fares, func(i, j int) bool { return fares[i].Price < fares[j].Price })
	return fares, nil
}
