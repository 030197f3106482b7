package source

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/internal/normalize"
	"github.com/pointfindr/points-cli/pkg/seatsaero"
)

// SeatsAero adapts the seats.aero availability API. Each trip becomes its own
// RawDeal carrying flight times, so distinct flights on the same date/route
// stay distinct through dedup.
type SeatsAero struct {
	client   seatsaero.Client
	minSeats int
	maxFees  int
}

// NewSeatsAero creates the seats.aero source.
func NewSeatsAero(client seatsaero.Client, minSeats, maxFees int) *SeatsAero {
	return &SeatsAero{client: client, minSeats: minSeats, maxFees: maxFees}
}

func (s *SeatsAero) Name() string { return "seats.aero" }

func (s *SeatsAero) Fetch(ctx context.Context, q model.Query) ([]model.RawDeal, error) {
	availabilities, err := s.client.Search(ctx, seatsaero.SearchRequest{
		Origins:      q.Origins,
		Destinations: q.Destinations,
		Date:         q.StartDate,
		Days:         searchWindowDays(q),
		MinSeats:     s.minSeats,
		MaxFees:      s.maxFees,
	})
	if err != nil {
		return nil, eris.Wrap(err, "seats.aero: search")
	}

	var deals []model.RawDeal
	for _, av := range availabilities {
		for _, trip := range av.Trips {
			cabin := normalize.CabinFromLabel(trip.Cabin)
			offer := model.CabinOffer{
				Points:        trip.MileageCost,
				Fees:          fmt.Sprintf("%s%.2f %s", trip.TaxesCurrencySymbol, float64(trip.TotalTaxes)/100, trip.TaxesCurrency),
				Seats:         trip.RemainingSeats,
				Direct:        trip.Stops == 0,
				DepartureTime: trip.DepartsAt,
				ArrivalTime:   trip.ArrivesAt,
			}
			if trip.FlightNumbers != "" {
				offer.FlightNumbers = []string{trip.FlightNumbers}
			}

			deals = append(deals, model.RawDeal{
				Date:    av.Date,
				Program: av.Program,
				Route: model.Route{
					Origin:      trip.OriginAirport,
					Destination: trip.DestinationAirport,
				},
				Cabins:        map[model.Cabin]model.CabinOffer{cabin: offer},
				DepartureTime: trip.DepartsAt,
				ArrivalTime:   trip.ArrivesAt,
				Source:        s.Name(),
			})
		}
	}

	return deals, nil
}

// searchWindowDays derives the additional-days window from the explicit Days
// filter, falling back to the start/end date span.
func searchWindowDays(q model.Query) int {
	if q.Filters.Days > 0 {
		return q.Filters.Days
	}
	start, err1 := time.Parse("2006-01-02", q.StartDate)
	end, err2 := time.Parse("2006-01-02", q.EndDate)
	if err1 != nil || err2 != nil || !end.After(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}
