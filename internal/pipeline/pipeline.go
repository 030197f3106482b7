// Package pipeline turns raw multi-source award availability into a single
// deduplicated, cash-enriched, ranked deal set.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pointfindr/points-cli/internal/model"
	"github.com/pointfindr/points-cli/internal/normalize"
	"github.com/pointfindr/points-cli/internal/pricing"
	"github.com/pointfindr/points-cli/internal/resilience"
	"github.com/pointfindr/points-cli/internal/source"
	"github.com/pointfindr/points-cli/internal/store"
)

// Options tunes pipeline execution.
type Options struct {
	// SourceTimeout bounds each producer fetch. Default: 90s.
	SourceTimeout time.Duration
	// QuoteTimeout bounds each cash quote. Default: 30s.
	QuoteTimeout time.Duration
	// MaxConcurrentQuotes limits the enrichment fan-out. Default: 8.
	MaxConcurrentQuotes int
}

func (o Options) withDefaults() Options {
	if o.SourceTimeout <= 0 {
		o.SourceTimeout = 90 * time.Second
	}
	if o.QuoteTimeout <= 0 {
		o.QuoteTimeout = 30 * time.Second
	}
	if o.MaxConcurrentQuotes <= 0 {
		o.MaxConcurrentQuotes = 8
	}
	return o
}

// Pipeline runs the full fetch, normalize, merge, enrich and rank flow.
type Pipeline struct {
	sources []source.Source
	oracle  pricing.Oracle
	store   store.Store
	opts    Options
}

// New creates a pipeline over the given sources and price oracle.
func New(oracle pricing.Oracle, sources []source.Source, opts Options) *Pipeline {
	return &Pipeline{
		sources: sources,
		oracle:  oracle,
		opts:    opts.withDefaults(),
	}
}

// WithStore enables search-history recording.
func (p *Pipeline) WithStore(st store.Store) *Pipeline {
	p.store = st
	return p
}

// FindDeals runs one search end to end and returns the ranked result set.
// Producer and oracle failures degrade to missing data, so a run that finds
// nothing yields an empty result, not an error. The only error FindDeals
// returns is cancellation of the search itself.
func (p *Pipeline) FindDeals(ctx context.Context, q model.Query) (*model.Result, error) {
	var searchID string
	if p.store != nil {
		search, err := p.store.CreateSearch(ctx, q)
		if err != nil {
			zap.L().Warn("pipeline: failed to record search", zap.Error(err))
		} else {
			searchID = search.ID
		}
	}

	raws := p.fetchAll(ctx, q)
	if err := ctx.Err(); err != nil {
		if p.store != nil && searchID != "" {
			if ferr := p.store.FailSearch(context.WithoutCancel(ctx), searchID, err); ferr != nil {
				zap.L().Warn("pipeline: failed to mark search failed", zap.Error(ferr))
			}
		}
		return nil, eris.Wrap(err, "pipeline: search canceled")
	}

	deals := p.normalizeAll(raws)
	deals = Merge(deals)
	deals = applyFilters(deals, q.Filters)
	p.enrichAll(ctx, deals)
	Rank(deals)

	if deals == nil {
		deals = []model.Deal{}
	}
	result := &model.Result{AllDeals: deals}
	result.CheapestDeal = result.Cheapest()

	if len(deals) == 0 {
		zap.L().Info("pipeline: no deals found",
			zap.Strings("origins", q.Origins),
			zap.Strings("destinations", q.Destinations),
		)
	}

	if p.store != nil && searchID != "" {
		if err := p.store.CompleteSearch(ctx, searchID, result); err != nil {
			zap.L().Warn("pipeline: failed to complete search record",
				zap.String("search_id", searchID),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// fetchAll queries every source in parallel. Results are collected per
// source slot and flattened in registration order so downstream merging is
// deterministic for a fixed configuration. A failed or timed-out source
// contributes zero deals.
func (p *Pipeline) fetchAll(ctx context.Context, q model.Query) []model.RawDeal {
	results := make([][]model.RawDeal, len(p.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range p.sources {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, p.opts.SourceTimeout)
			defer cancel()

			retryCfg := resilience.DefaultRetryConfig()
			retryCfg.MaxAttempts = 2
			retryCfg.OnRetry = resilience.RetryLogger(src.Name(), "fetch")

			deals, err := resilience.DoVal(fetchCtx, retryCfg, func(ctx context.Context) ([]model.RawDeal, error) {
				return src.Fetch(ctx, q)
			})
			if err != nil {
				zap.L().Warn("pipeline: source fetch failed",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				return nil // a dead source is zero deals, not a dead batch
			}
			zap.L().Info("pipeline: source fetch complete",
				zap.String("source", src.Name()),
				zap.Int("deals", len(deals)),
			)
			results[i] = deals
			return nil
		})
	}
	_ = g.Wait()

	var all []model.RawDeal
	for _, deals := range results {
		all = append(all, deals...)
	}
	return all
}

// normalizeAll converts raw records into canonical deals. Records whose
// program cannot be identified are dropped here, before they can reach the
// merge map.
func (p *Pipeline) normalizeAll(raws []model.RawDeal) []model.Deal {
	deals := make([]model.Deal, 0, len(raws))
	for _, raw := range raws {
		program, ok := normalize.Program(raw.Program)
		if !ok {
			zap.L().Debug("pipeline: dropping deal without program",
				zap.String("source", raw.Source),
				zap.String("route", raw.Route.String()),
			)
			continue
		}

		deal := model.Deal{
			Date:          raw.Date,
			Program:       program,
			Route:         raw.Route,
			Cabins:        make(map[model.Cabin]*model.CabinOffer, len(raw.Cabins)),
			DepartureTime: raw.DepartureTime,
			ArrivalTime:   raw.ArrivalTime,
			Source:        raw.Source,
		}
		for cabin, offer := range raw.Cabins {
			o := offer
			deal.Cabins[cabin] = &o
		}
		deals = append(deals, deal)
	}
	return deals
}

// enrichAll launches one enrichment task per populated (deal, cabin) pair and
// waits for the whole batch. Each task owns its cabin slot, so the fan-out
// shares no mutable state. Ranking must not start before this returns.
func (p *Pipeline) enrichAll(ctx context.Context, deals []model.Deal) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrentQuotes)

	for i := range deals {
		deal := &deals[i]
		for _, cabin := range model.CabinOrder {
			if offer := deal.Offer(cabin); offer == nil || offer.Points <= 0 {
				continue
			}
			g.Go(func() error {
				quoteCtx, cancel := context.WithTimeout(gctx, p.opts.QuoteTimeout)
				defer cancel()
				EnrichCabin(quoteCtx, p.oracle, deal, cabin)
				return nil
			})
		}
	}
	_ = g.Wait()
}

// applyFilters drops merged deals the query filters exclude. Program
// matching is against canonical names, case-insensitively; points bounds
// compare the deal's best cabin.
func applyFilters(deals []model.Deal, f model.Filters) []model.Deal {
	if len(f.Programs) == 0 && f.PointsMin <= 0 && f.PointsMax <= 0 {
		return deals
	}

	wanted := make(map[string]bool, len(f.Programs))
	for _, prog := range f.Programs {
		if canonical, ok := normalize.Program(prog); ok {
			wanted[strings.ToLower(canonical)] = true
		}
	}

	kept := deals[:0]
	for _, deal := range deals {
		if len(wanted) > 0 && !wanted[strings.ToLower(deal.Program)] {
			continue
		}
		points, has := deal.BestPoints()
		if f.PointsMin > 0 && (!has || points < f.PointsMin) {
			continue
		}
		if f.PointsMax > 0 && (!has || points > f.PointsMax) {
			continue
		}
		kept = append(kept, deal)
	}
	return kept
}
