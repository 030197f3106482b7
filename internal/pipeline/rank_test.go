package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointfindr/points-cli/internal/model"
)

func TestRank_CheapestFirst(t *testing.T) {
	deals := []model.Deal{
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
		mkDeal("Virgin Atlantic", "seatsaero", model.CabinBusiness, 50000),
		mkDeal("Qantas", "seatsaero", model.CabinBusiness, 110000),
	}

	Rank(deals)

	assert.Equal(t, "Virgin Atlantic", deals[0].Program)
	assert.Equal(t, "Delta", deals[1].Program)
	assert.Equal(t, "Qantas", deals[2].Program)
}

func TestRank_UsesFirstPopulatedCabin(t *testing.T) {
	// Economy is first in cabin preference order, so a 30k economy deal
	// outranks a 25k business deal that also has 40k economy.
	multiCabin := model.Deal{
		Program: "Delta",
		Cabins: map[model.Cabin]*model.CabinOffer{
			model.CabinEconomy:  {Points: 40000},
			model.CabinBusiness: {Points: 25000},
		},
	}
	economyOnly := mkDeal("Qantas", "seatsaero", model.CabinEconomy, 30000)

	deals := []model.Deal{multiCabin, economyOnly}
	Rank(deals)

	assert.Equal(t, "Qantas", deals[0].Program)
	assert.Equal(t, "Delta", deals[1].Program)
}

func TestRank_EmptyDealsSortLast(t *testing.T) {
	empty := model.Deal{Program: "Alaska Airlines"}
	deals := []model.Deal{
		empty,
		mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000),
	}

	Rank(deals)

	require.Len(t, deals, 2)
	assert.Equal(t, "Delta", deals[0].Program)
	assert.Equal(t, "Alaska Airlines", deals[1].Program)
}

func TestRank_StableOnTies(t *testing.T) {
	a := mkDeal("Delta", "seatsaero", model.CabinBusiness, 70000)
	b := mkDeal("Qantas", "pointsyeah", model.CabinBusiness, 70000)

	deals := []model.Deal{a, b}
	Rank(deals)

	assert.Equal(t, "Delta", deals[0].Program)
	assert.Equal(t, "Qantas", deals[1].Program)
}
