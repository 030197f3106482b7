package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/internal/pricing"
)

// fakeOracle returns canned fares and records whether it was called.
type fakeOracle struct {
	fares  []pricing.Fare
	err    error
	called int
}

func (f *fakeOracle) Name() string { return "fake" }

func (f *fakeOracle) Quote(ctx context.Context, route model.Route, date string, cabin model.Cabin) ([]pricing.Fare, error) {
	f.called++
	return f.fares, f.err
}

func TestCPP(t *testing.T) {
	assert.Equal(t, 1.44, CPP(900, 62500))
	assert.Equal(t, 1.92, CPP(1200, 62500))
	assert.Equal(t, 0.0, CPP(500, 0))
	assert.Equal(t, 2.0, CPP(100, 5000))
}

func enrichableDeal(points int, departure string) model.Deal {
	return model.Deal{
		Date:    "2026-10-01",
		Program: "Delta",
		Route:   model.Route{Origin: "JFK", Destination: "LHR"},
		Cabins: map[model.Cabin]*model.CabinOffer{
			model.CabinBusiness: {Points: points, DepartureTime: departure},
		},
		Source: "seatsaero",
	}
}

func TestEnrichCabin_CheapestAndExactMatch(t *testing.T) {
	oracle := &fakeOracle{fares: []pricing.Fare{
		{Price: 900, DepartureTime: "2026-10-01T14:00:00"},
		{Price: 1200, DepartureTime: "2026-10-01T18:00:00"},
	}}
	deal := enrichableDeal(62500, "2026-10-01T18:00:00Z")

	EnrichCabin(context.Background(), oracle, &deal, model.CabinBusiness)

	offer := deal.Offer(model.CabinBusiness)
	require.NotNil(t, offer.CheapestCashPrice)
	assert.Equal(t, 900.0, *offer.CheapestCashPrice)
	require.NotNil(t, offer.CheapestCPP)
	assert.Equal(t, 1.44, *offer.CheapestCPP)

	require.NotNil(t, offer.ExactCashPrice)
	assert.True(t, offer.ExactCashPrice.Available)
	assert.Equal(t, 1200.0, offer.ExactCashPrice.Value)
	require.NotNil(t, offer.ExactCPP)
	assert.Equal(t, 1.92, offer.ExactCPP.Value)
}

func TestEnrichCabin_NoExactMatchIsRecorded(t *testing.T) {
	oracle := &fakeOracle{fares: []pricing.Fare{
		{Price: 900, DepartureTime: "2026-10-01T14:00:00"},
	}}
	deal := enrichableDeal(62500, "2026-10-01T18:00:00Z")

	EnrichCabin(context.Background(), oracle, &deal, model.CabinBusiness)

	offer := deal.Offer(model.CabinBusiness)
	require.NotNil(t, offer.ExactCashPrice)
	assert.False(t, offer.ExactCashPrice.Available)
	require.NotNil(t, offer.ExactCPP)
	assert.False(t, offer.ExactCPP.Available)
}

func TestEnrichCabin_UnparseableAwardTimeStillChecksCheapest(t *testing.T) {
	oracle := &fakeOracle{fares: []pricing.Fare{
		{Price: 900, DepartureTime: "2026-10-01T14:00:00"},
	}}
	deal := enrichableDeal(62500, "whenever")

	EnrichCabin(context.Background(), oracle, &deal, model.CabinBusiness)

	offer := deal.Offer(model.CabinBusiness)
	require.NotNil(t, offer.CheapestCashPrice)
	assert.Equal(t, 900.0, *offer.CheapestCashPrice)
	require.NotNil(t, offer.ExactCashPrice)
	assert.False(t, offer.ExactCashPrice.Available)
}

func TestEnrichCabin_FallsBackToDealDeparture(t *testing.T) {
	oracle := &fakeOracle{fares: []pricing.Fare{
		{Price: 1200, DepartureTime: "2026-10-01T18:00:00"},
	}}
	deal := enrichableDeal(62500, "")
	deal.DepartureTime = "6:00 PM"

	EnrichCabin(context.Background(), oracle, &deal, model.CabinBusiness)

	offer := deal.Offer(model.CabinBusiness)
	require.NotNil(t, offer.ExactCashPrice)
	assert.True(t, offer.ExactCashPrice.Available)
	assert.Equal(t, 1200.0, offer.ExactCashPrice.Value)
}

func TestEnrichCabin_OracleFailureLeavesFieldsUnset(t *testing.T) {
	oracle := &fakeOracle{err: eris.New("quota exceeded")}
	deal := enrichableDeal(62500, "2026-10-01T18:00:00Z")

	EnrichCabin(context.Background(), oracle, &deal, model.CabinBusiness)

	offer := deal.Offer(model.CabinBusiness)
	assert.Nil(t, offer.CheapestCashPrice)
	assert.Nil(t, offer.CheapestCPP)
	assert.Nil(t, offer.ExactCashPrice)
	assert.Nil(t, offer.ExactCPP)
}

func TestEnrichCabin_NoFaresLeavesFieldsUnset(t *testing.T) {
	oracle := &fakeOracle{}
	deal := enrichableDeal(62500, "2026-10-01T18:00:00Z")

	EnrichCabin(context.Background(), oracle, &deal, model.CabinBusiness)

	offer := deal.Offer(model.CabinBusiness)
	assert.Nil(t, offer.CheapestCashPrice)
	assert.Nil(t, offer.ExactCashPrice)
}

func TestEnrichCabin_SkipsMissingOffer(t *testing.T) {
	oracle := &fakeOracle{fares: []pricing.Fare{{Price: 900}}}
	deal := enrichableDeal(62500, "")

	EnrichCabin(context.Background(), oracle, &deal, model.CabinFirst)
	assert.Zero(t, oracle.called)
}
