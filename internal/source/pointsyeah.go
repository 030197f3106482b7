package source

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/internal/normalize"
	"github.com/pointfindr/points-cli/pkg/pointsyeah"
)

// PointsYeah adapts the PointsYeah award search API. The API can emit several
// route options per program/date/route in the same cabin, so the adapter
// keeps only the cheapest option per cabin before handing records to the
// pipeline.
type PointsYeah struct {
	client pointsyeah.Client
}

// NewPointsYeah creates the PointsYeah source.
func NewPointsYeah(client pointsyeah.Client) *PointsYeah {
	return &PointsYeah{client: client}
}

func (s *PointsYeah) Name() string { return "pointsyeah" }

type pyKey struct {
	program string
	date    string
	route   model.Route
}

func (s *PointsYeah) Fetch(ctx context.Context, q model.Query) ([]model.RawDeal, error) {
	results, err := s.client.Search(ctx, pointsyeah.SearchRequest{
		Origins:      q.Origins,
		Destinations: q.Destinations,
		DepartDate:   q.StartDate,
		ReturnDate:   q.EndDate,
		Alliances:    q.Filters.Alliances,
		Banks:        q.Filters.TransferPartners,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pointsyeah: search")
	}

	best := make(map[pyKey]*model.RawDeal)
	var order []pyKey // map iteration order is random; keep arrival order

	for _, res := range results {
		if len(res.Routes) == 0 {
			continue
		}
		key := pyKey{
			program: res.Program,
			date:    res.Date,
			route:   model.Route{Origin: res.Departure, Destination: res.Arrival},
		}
		deal, ok := best[key]
		if !ok {
			deal = &model.RawDeal{
				Date:    key.date,
				Program: key.program,
				Route:   key.route,
				Cabins:  make(map[model.Cabin]model.CabinOffer),
				Source:  s.Name(),
			}
			best[key] = deal
			order = append(order, key)
		}

		for _, route := range res.Routes {
			payment := route.Payment
			if payment.Cabin == "" || payment.Miles <= 0 {
				continue
			}
			cabin := normalize.CabinFromLabel(payment.Cabin)
			current, exists := deal.Cabins[cabin]
			if exists && current.Points <= payment.Miles {
				continue
			}
			offer := model.CabinOffer{
				Points: payment.Miles,
				Fees:   fmt.Sprintf("$%g %s", payment.Tax, payment.Currency),
				Seats:  payment.Seats,
				Direct: len(route.Segments) == 1,
			}
			if len(route.Segments) > 0 {
				offer.DepartureTime = route.Segments[0].DepartsAt
				offer.ArrivalTime = route.Segments[len(route.Segments)-1].ArrivesAt
				for _, seg := range route.Segments {
					if seg.FlightNumber != "" {
						offer.FlightNumbers = append(offer.FlightNumbers, seg.FlightNumber)
					}
				}
			}
			deal.Cabins[cabin] = offer
		}
	}

	deals := make([]model.RawDeal, 0, len(order))
	for _, key := range order {
		deals = append(deals, *best[key])
	}
	return deals, nil
}
