package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/pkg/seatsaero"
)

type fakeSeatsAero struct {
	req   seatsaero.SearchRequest
	avail []seatsaero.Availability
	err   error
}

func (f *fakeSeatsAero) Search(ctx context.Context, req seatsaero.SearchRequest) ([]seatsaero.Availability, error) {
	f.req = req
	return f.avail, f.err
}

func TestSeatsAeroFetch(t *testing.T) {
	client := &fakeSeatsAero{avail: []seatsaero.Availability{{
		ID:      "avail-1",
		Date:    "2026-10-01",
		Program: "delta",
		Trips: []seatsaero.Trip{
			{
				OriginAirport:       "JFK",
				DestinationAirport:  "LHR",
				Cabin:               "business",
				MileageCost:         62500,
				TotalTaxes:          5612,
				TaxesCurrency:       "USD",
				TaxesCurrencySymbol: "$",
				RemainingSeats:      2,
				Stops:               0,
				DepartsAt:           "2026-10-01T18:00:00Z",
				ArrivesAt:           "2026-10-02T06:20:00Z",
				FlightNumbers:       "DL 1",
			},
			{
				OriginAirport:      "JFK",
				DestinationAirport: "LHR",
				Cabin:              "premium economy",
				MileageCost:        45000,
				TotalTaxes:         5612,
				TaxesCurrency:      "USD",
				RemainingSeats:     4,
				Stops:              1,
				DepartsAt:          "2026-10-01T08:00:00Z",
			},
		},
	}}}

	src := NewSeatsAero(client, 1, 0)
	deals, err := src.Fetch(context.Background(), model.Query{
		Origins:      []string{"JFK"},
		Destinations: []string{"LHR"},
		StartDate:    "2026-10-01",
		EndDate:      "2026-10-01",
	})
	require.NoError(t, err)
	require.Len(t, deals, 2)

	first := deals[0]
	assert.Equal(t, "delta", first.Program)
	assert.Equal(t, "seats.aero", first.Source)
	assert.Equal(t, model.Route{Origin: "JFK", Destination: "LHR"}, first.Route)
	assert.Equal(t, "2026-10-01T18:00:00Z", first.DepartureTime)

	offer, ok := first.Cabins[model.CabinBusiness]
	require.True(t, ok)
	assert.Equal(t, 62500, offer.Points)
	assert.Equal(t, "$56.12 USD", offer.Fees)
	assert.True(t, offer.Direct)
	assert.Equal(t, []string{"DL 1"}, offer.FlightNumbers)

	second := deals[1]
	offer, ok = second.Cabins[model.CabinPremium]
	require.True(t, ok)
	assert.Equal(t, 45000, offer.Points)
	assert.False(t, offer.Direct)
}

func TestSeatsAeroFetch_WindowFromDateSpan(t *testing.T) {
	client := &fakeSeatsAero{}
	src := NewSeatsAero(client, 1, 0)

	_, err := src.Fetch(context.Background(), model.Query{
		Origins:      []string{"JFK"},
		Destinations: []string{"LHR"},
		StartDate:    "2026-10-01",
		EndDate:      "2026-10-04",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, client.req.Days)
}

func TestSeatsAeroFetch_ExplicitDaysFilterWins(t *testing.T) {
	client := &fakeSeatsAero{}
	src := NewSeatsAero(client, 1, 0)

	_, err := src.Fetch(context.Background(), model.Query{
		Origins:      []string{"JFK"},
		Destinations: []string{"LHR"},
		StartDate:    "2026-10-01",
		EndDate:      "2026-10-04",
		Filters:      model.Filters{Days: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, client.req.Days)
}
