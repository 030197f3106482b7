package pipeline

import (
	"math"
	"sort"

	"github.com/pointfindr/points-cli/internal/model"
)

// Rank orders deals cheapest-first by the points cost of the first populated
// cabin in preference order. Deals with no populated cabin sort last. The
// sort is stable, so ties and unrankable deals keep their prior relative
// order. Cash price and CPP are informational only and never affect ranking.
func Rank(deals []model.Deal) {
	sort.SliceStable(deals, func(i, j int) bool {
		return rankKey(&deals[i]) < rankKey(&deals[j])
	})
}

func rankKey(d *model.Deal) int {
	if points, ok := d.BestPoints(); ok {
		return points
	}
	return math.MaxInt
}
