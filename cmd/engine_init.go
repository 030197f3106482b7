package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pointfindr/points-cli/internal/pipeline"
	"github.com/pointfindr/points-cli/internal/pricing"
	"github.com/pointfindr/points-cli/internal/source"
	"github.com/pointfindr/points-cli/internal/store"
	"github.com/pointfindr/points-cli/pkg/amadeus"
	"github.com/pointfindr/points-cli/pkg/gflights"
	"github.com/pointfindr/points-cli/pkg/pointsyeah"
	"github.com/pointfindr/points-cli/pkg/seatsaero"
)

// searchEnv bundles the wired pipeline with the store that backs it.
type searchEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

func (e *searchEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "points.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initSearchEnv builds the full search stack from config: store, availability
// sources, and the cash-price oracle chain with its quote cache.
func initSearchEnv(ctx context.Context) (*searchEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if pruned, err := st.DeleteExpiredQuotes(ctx); err != nil {
		zap.L().Warn("prune quote cache failed", zap.Error(err))
	} else if pruned > 0 {
		zap.L().Debug("pruned expired quotes", zap.Int("count", pruned))
	}

	var sources []source.Source
	if cfg.SeatsAero.Cookie != "" {
		saClient := seatsaero.NewClient(cfg.SeatsAero.Cookie, seatsaero.WithBaseURL(cfg.SeatsAero.BaseURL))
		sources = append(sources, source.NewSeatsAero(saClient, cfg.SeatsAero.MinSeats, cfg.SeatsAero.MaxFees))
	}
	if cfg.PointsYeah.Token != "" {
		pyClient := pointsyeah.NewClient(cfg.PointsYeah.Token, pointsyeah.WithBaseURL(cfg.PointsYeah.BaseURL))
		sources = append(sources, source.NewPointsYeah(pyClient))
	}
	if len(sources) == 0 {
		_ = st.Close()
		return nil, eris.New("no availability sources configured (set POINTS_SEATSAERO_COOKIE or POINTS_POINTSYEAH_TOKEN)")
	}

	var oracles []pricing.Oracle
	gfClient := gflights.NewClient(cfg.GFlights.Key, gflights.WithBaseURL(cfg.GFlights.BaseURL))
	oracles = append(oracles, pricing.NewGoogleFlights(gfClient))
	if cfg.Amadeus.Key != "" && cfg.Amadeus.Secret != "" {
		amClient := amadeus.NewClient(cfg.Amadeus.Key, cfg.Amadeus.Secret, amadeus.WithBaseURL(cfg.Amadeus.BaseURL))
		oracles = append(oracles, pricing.NewAmadeus(amClient))
	}

	var oracle pricing.Oracle = pricing.NewChain(oracles...)
	if cfg.Pricing.CacheTTLHours > 0 {
		oracle = pricing.NewCached(oracle, st, time.Duration(cfg.Pricing.CacheTTLHours)*time.Hour)
	}

	p := pipeline.New(oracle, sources, pipeline.Options{
		SourceTimeout:       time.Duration(cfg.Search.SourceTimeoutSecs) * time.Second,
		QuoteTimeout:        time.Duration(cfg.Pricing.QuoteTimeoutSecs) * time.Second,
		MaxConcurrentQuotes: cfg.Pricing.MaxConcurrent,
	}).WithStore(st)

	return &searchEnv{Store: st, Pipeline: p}, nil
}
