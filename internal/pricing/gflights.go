package pricing

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/internal/parse"
	"github.com/pointfindr/points-cli/pkg/gflights"
)

// seatClasses maps canonical cabins onto the Google Flights seat parameter.
var seatClasses = map[model.Cabin]string{
	model.CabinEconomy:  "economy",
	model.CabinPremium:  "premium-economy",
	model.CabinBusiness: "business",
	model.CabinFirst:    "first",
}

// GoogleFlights quotes cash fares via the Google Flights proxy API.
type GoogleFlights struct {
	client gflights.Client
}

// NewGoogleFlights creates the Google Flights oracle.
func NewGoogleFlights(client gflights.Client) *GoogleFlights {
	return &GoogleFlights{client: client}
}

func (o *GoogleFlights) Name() string { return "google-flights" }

func (o *GoogleFlights) Quote(ctx context.Context, route model.Route, date string, cabin model.Cabin) ([]Fare, error) {
	seat, ok := seatClasses[cabin]
	if !ok {
		return nil, eris.Errorf("gflights oracle: unknown cabin %q", cabin)
	}

	resp, err := o.client.Flights(ctx, gflights.FlightsRequest{
		From: route.Origin,
		To:   route.Destination,
		Date: date,
		Seat: seat,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gflights oracle: quote")
	}

	fares := make([]Fare, 0, len(resp.Flights))
	for _, f := range resp.Flights {
		price, ok := parse.Money(f.Price)
		if !ok {
			zap.L().Debug("gflights oracle: unparseable price",
				zap.String("price", f.Price),
				zap.String("flight", f.Name),
			)
			continue
		}
		fares = append(fares, Fare{
			Price:         price,
			DepartureTime: f.Departure,
			FlightID:      f.Name,
		})
	}

	return fares, nil
}
