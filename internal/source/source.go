// Package source adapts external award-availability providers into a common
// producer interface. Every provider speaks its own schema; adapters emit
// RawDeal records and leave program normalization to the pipeline.
package source

import (
	"context"

	"github.com/pointfindr/points-cli/internal/model"
)

// Source produces raw deal records for a search query. A failing source is
// treated by callers as "zero deals from this source", never as a fatal
// error for the batch.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q model.Query) ([]model.RawDeal, error)
}
