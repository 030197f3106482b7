// Package store persists search history and cached cash quotes.
package store

import (
	"context"
	"time"

	"github.com/pointfindr/points-cli/internal/model"
)

// SearchStatus is the lifecycle state of a recorded search.
type SearchStatus string

const (
	SearchStatusRunning  SearchStatus = "running"
	SearchStatusComplete SearchStatus = "complete"
	SearchStatusFailed   SearchStatus = "failed"
)

// Search is one recorded deal-search invocation.
type Search struct {
	ID        string        `json:"id"`
	Query     model.Query   `json:"query"`
	Status    SearchStatus  `json:"status"`
	Result    *model.Result `json:"result,omitempty"`
	DealCount int           `json:"deal_count"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store defines the persistence interface for the deal finder.
type Store interface {
	// Search history
	CreateSearch(ctx context.Context, q model.Query) (*Search, error)
	CompleteSearch(ctx context.Context, id string, result *model.Result) error
	FailSearch(ctx context.Context, id string, cause error) error
	GetSearch(ctx context.Context, id string) (*Search, error)
	ListSearches(ctx context.Context, limit int) ([]Search, error)

	// Quote cache
	GetCachedQuote(ctx context.Context, key string) ([]byte, error)
	SetCachedQuote(ctx context.Context, key string, data []byte, ttl time.Duration) error
	DeleteExpiredQuotes(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
