package pricing

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pointfindr/points-cli/internal/model"
)

// Chain tries oracles in priority order, returning the first non-empty quote.
type Chain struct {
	oracles []Oracle
}

// NewChain creates a Chain. Oracles are tried in the order given.
func NewChain(oracles ...Oracle) *Chain {
	return &Chain{oracles: oracles}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Quote(ctx context.Context, route model.Route, date string, cabin model.Cabin) ([]Fare, error) {
	var lastErr error
	for _, o := range c.oracles {
		fares, err := o.Quote(ctx, route, date, cabin)
		if err != nil {
			zap.L().Debug("pricing: oracle failed, trying next",
				zap.String("oracle", o.Name()),
				zap.String("route", route.String()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if len(fares) > 0 {
			return fares, nil
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "pricing: all oracles failed")
	}
	return nil, nil
}
