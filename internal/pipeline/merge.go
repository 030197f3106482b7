package pipeline

import (
	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/internal/parse"
)

// dealKey is the deduplication identity of a deal. Two records for the same
// date/route/program are the same deal unless their normalized flight times
// differ. The time-augmented key keeps distinct flights on a shared
// date/route/program from being conflated.
type dealKey struct {
	date         string
	route        model.Route
	program      string
	departure    parse.TimeOfDay
	hasDeparture bool
	arrival      parse.TimeOfDay
	hasArrival   bool
}

func keyFor(d *model.Deal) dealKey {
	key := dealKey{
		date:    d.Date,
		route:   d.Route,
		program: d.Program,
	}
	key.departure, key.hasDeparture = parse.Clock(d.DepartureTime)
	key.arrival, key.hasArrival = parse.Clock(d.ArrivalTime)
	return key
}

// Merge deduplicates deals sharing an identity key, keeping per cabin the
// offer with the lowest points cost. Output order is the first-seen order of
// each distinct key. Offers are replaced wholesale, never field-patched; a
// replacement sourced differently from the deal's current tag marks the deal
// as "multiple". Merge allocates fresh deals, so the input is never mutated
// and merging an already-merged set is a no-op.
func Merge(deals []model.Deal) []model.Deal {
	merged := make(map[dealKey]*model.Deal, len(deals))
	var order []dealKey

	for i := range deals {
		incoming := &deals[i]
		key := keyFor(incoming)

		existing, seen := merged[key]
		if !seen {
			clone := cloneDeal(incoming)
			merged[key] = clone
			order = append(order, key)
			continue
		}

		for _, cabin := range model.CabinOrder {
			offer := incoming.Offer(cabin)
			if offer == nil || offer.Points <= 0 {
				continue
			}
			current := existing.Offer(cabin)
			if current != nil && current.Points > 0 && offer.Points >= current.Points {
				continue
			}
			clone := *offer
			existing.SetOffer(cabin, &clone)
			if incoming.Source != existing.Source {
				existing.Source = model.SourceMultiple
			}
		}
	}

	out := make([]model.Deal, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}

func cloneDeal(d *model.Deal) *model.Deal {
	clone := *d
	clone.Cabins = make(map[model.Cabin]*model.CabinOffer, len(d.Cabins))
	for cabin, offer := range d.Cabins {
		if offer == nil {
			continue
		}
		o := *offer
		clone.Cabins[cabin] = &o
	}
	return &clone
}
