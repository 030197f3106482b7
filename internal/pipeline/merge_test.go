package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointfindr/points-cli/internal/model"
)

func mkDeal(program, source string, cabin model.Cabin, points int) model.Deal {
	return model.Deal{
		Date:    "2026-10-01",
		Program: program,
		Route:   model.Route{Origin: "JFK", Destination: "LHR"},
		Cabins: map[model.Cabin]*model.CabinOffer{
			cabin: {Points: points, Seats: 2},
		},
		Source: source,
	}
}

func TestMerge_KeepsLowestPointsPerCabin(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
		mkDeal("Delta", "pointsyeah", model.CabinBusiness, 62500),
	}

	merged := Merge(deals)
	require.Len(t, merged, 1)

	offer := merged[0].Offer(model.CabinBusiness)
	require.NotNil(t, offer)
	assert.Equal(t, 62500, offer.Points)
	assert.Equal(t, model.SourceMultiple, merged[0].Source)
}

func TestMerge_CheaperOfferNotReplaced(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 62500),
		mkDeal("Delta", "pointsyeah", model.CabinBusiness, 70000),
	}

	merged := Merge(deals)
	require.Len(t, merged, 1)
	assert.Equal(t, 62500, merged[0].Offer(model.CabinBusiness).Points)
	assert.Equal(t, "seatsaero", merged[0].Source)
}

func TestMerge_SameSourceStaysSingle(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 62500),
	}

	merged := Merge(deals)
	require.Len(t, merged, 1)
	assert.Equal(t, "seatsaero", merged[0].Source)
}

func TestMerge_DistinctCabinsCombine(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
		mkDeal("Delta", "pointsyeah", model.CabinEconomy, 25000),
	}

	merged := Merge(deals)
	require.Len(t, merged, 1)
	assert.Equal(t, 25000, merged[0].Offer(model.CabinEconomy).Points)
	assert.Equal(t, 70000, merged[0].Offer(model.CabinBusiness).Points)
	assert.Equal(t, model.SourceMultiple, merged[0].Source)
}

func TestMerge_DifferentProgramsStaySeparate(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
		mkDeal("Virgin Atlantic", "seatsaero", model.CabinBusiness, 50000),
	}

	merged := Merge(deals)
	assert.Len(t, merged, 2)
}

func TestMerge_DifferentTimesStaySeparate(t *testing.T) {
	morning := mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000)
	morning.DepartureTime = "2026-10-01T08:00:00Z"
	evening := mkDeal("Delta", "seatsaero", model.CabinBusiness, 62500)
	evening.DepartureTime = "2026-10-01T19:30:00Z"

	merged := Merge([]model.Deal{morning, evening})
	assert.Len(t, merged, 2)
}

func TestMerge_EquivalentTimeFormatsCombine(t *testing.T) {
	a := mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000)
	a.DepartureTime = "2026-10-01T19:30:00Z"
	b := mkDeal("Delta", "pointsyeah", model.CabinBusiness, 62500)
	b.DepartureTime = "7:30 PM"

	merged := Merge([]model.Deal{a, b})
	require.Len(t, merged, 1)
	assert.Equal(t, 62500, merged[0].Offer(model.CabinBusiness).Points)
}

func TestMerge_PreservesFirstSeenOrder(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Qantas", "seatsaero", model.CabinFirst, 110000),
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
		mkDeal("Qantas", "pointsyeah", model.CabinFirst, 90000),
	}

	merged := Merge(deals)
	require.Len(t, merged, 2)
	assert.Equal(t, "Qantas", merged[0].Program)
	assert.Equal(t, "Delta", merged[1].Program)
}

func TestMerge_Idempotent(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
		mkDeal("Delta", "pointsyeah", model.CabinBusiness, 62500),
	}

	once := Merge(deals)
	twice := Merge(once)
	assert.Equal(t, once, twice)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
		mkDeal("Delta", "pointsyeah", model.CabinBusiness, 62500),
	}

	_ = Merge(deals)
	assert.Equal(t, 70000, deals[0].Offer(model.CabinBusiness).Points)
	assert.Equal(t, "seatsaero", deals[0].Source)
}

func TestMerge_IgnoresEmptyIncomingOffer(t *testing.T) {
	a := mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000)
	b := mkDeal("Delta", "pointsyeah", model.CabinBusiness, 0)

	merged := Merge([]model.Deal{a, b})
	require.Len(t, merged, 1)
	assert.Equal(t, 70000, merged[0].Offer(model.CabinBusiness).Points)
	assert.Equal(t, "seatsaero", merged[0].Source)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
}
