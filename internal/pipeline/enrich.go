package pipeline

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/internal/parse"
	"github.com/pointfindr/points-cli/internal/pricing"
)

// CPP converts a cash price and points cost into cents-per-point, rounded to
// two decimals. Zero points yields zero rather than a division fault.
func CPP(price float64, points int) float64 {
	if points == 0 {
		return 0
	}
	return math.Round(price/float64(points)*100*100) / 100
}

// EnrichCabin attaches comparable cash pricing to one cabin of a deal. It is
// a no-op when the cabin has no offer or no points value. Oracle failures are
// logged and leave the cabin's enrichment fields absent; enrichment never
// fails the batch. Each call writes only its own cabin slot, so calls for
// different (deal, cabin) pairs are safe to run concurrently.
func EnrichCabin(ctx context.Context, oracle pricing.Oracle, deal *model.Deal, cabin model.Cabin) {
	offer := deal.Offer(cabin)
	if offer == nil || offer.Points <= 0 {
		return
	}

	fares, err := oracle.Quote(ctx, deal.Route, deal.Date, cabin)
	if err != nil {
		zap.L().Warn("enrich: cash quote failed",
			zap.String("route", deal.Route.String()),
			zap.String("date", deal.Date),
			zap.String("cabin", string(cabin)),
			zap.Error(err),
		)
		return
	}
	if len(fares) == 0 {
		return
	}

	// First fare is the cheapest by oracle contract.
	cheapest := fares[0].Price
	cheapestCPP := CPP(cheapest, offer.Points)
	offer.CheapestCashPrice = &cheapest
	offer.CheapestCPP = &cheapestCPP

	// Exact match: same wall-clock departure as the award flight. The fields
	// are always set once fares exist, so callers can tell "checked, none
	// found" from "never checked".
	offer.ExactCashPrice = model.Unavailable()
	offer.ExactCPP = model.Unavailable()

	awardTime, ok := awardDeparture(deal, offer)
	if !ok {
		return
	}
	for _, fare := range fares {
		fareTime, ok := parse.Clock(fare.DepartureTime)
		if !ok || fareTime != awardTime {
			continue
		}
		offer.ExactCashPrice = model.Marked(fare.Price)
		offer.ExactCPP = model.Marked(CPP(fare.Price, offer.Points))
		return
	}
}

// awardDeparture resolves the award flight's departure time-of-day, trying
// the offer's own timestamp before the deal-level one.
func awardDeparture(deal *model.Deal, offer *model.CabinOffer) (parse.TimeOfDay, bool) {
	if t, ok := parse.Clock(offer.DepartureTime); ok {
		return t, true
	}
	return parse.Clock(deal.DepartureTime)
}
