package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pointfindr/points-cli/internal/model"
)

// PgxPool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    PgxPool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS searches (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query      JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     JSONB,
	deal_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS quote_cache (
	key        TEXT PRIMARY KEY,
	fares      JSONB NOT NULL,
	quoted_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_searches_status ON searches(status);
CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
CREATE INDEX IF NOT EXISTS idx_quote_cache_expires_at ON quote_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSearch(ctx context.Context, q model.Query) (*Search, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	queryJSON, err := json.Marshal(q)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal query")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO searches (id, query, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, queryJSON, string(SearchStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert search")
	}

	return &Search{
		ID:        id,
		Query:     q,
		Status:    SearchStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteSearch(ctx context.Context, id string, result *model.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE searches SET status = $1, result = $2, deal_count = $3, updated_at = $4 WHERE id = $5`,
		string(SearchStatusComplete), resultJSON, len(result.AllDeals), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete search %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("search %s not found", id)
	}
	return nil
}

func (s *PostgresStore) FailSearch(ctx context.Context, id string, cause error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE searches SET status = $1, result = to_jsonb($2::text), updated_at = $3 WHERE id = $4`,
		string(SearchStatusFailed), cause.Error(), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail search %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("search %s not found", id)
	}
	return nil
}

func (s *PostgresStore) GetSearch(ctx context.Context, id string) (*Search, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, query, status, result, deal_count, created_at, updated_at FROM searches WHERE id = $1`,
		id,
	)
	search, err := scanPostgresSearch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: search %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get search %s", id)
	}
	return search, nil
}

func (s *PostgresStore) ListSearches(ctx context.Context, limit int) ([]Search, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, query, status, result, deal_count, created_at, updated_at
		 FROM searches ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list searches")
	}
	defer rows.Close()

	var searches []Search
	for rows.Next() {
		search, err := scanPostgresSearch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan search")
		}
		searches = append(searches, *search)
	}
	return searches, eris.Wrap(rows.Err(), "postgres: iterate searches")
}

func (s *PostgresStore) GetCachedQuote(ctx context.Context, key string) ([]byte, error) {
	var fares []byte
	err := s.pool.QueryRow(ctx,
		`SELECT fares FROM quote_cache WHERE key = $1 AND expires_at > now()`,
		key,
	).Scan(&fares)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get cached quote %s", key)
	}
	return fares, nil
}

func (s *PostgresStore) SetCachedQuote(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quote_cache (key, fares, quoted_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET fares = EXCLUDED.fares, quoted_at = EXCLUDED.quoted_at, expires_at = EXCLUDED.expires_at`,
		key, data, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "postgres: set cached quote %s", key)
}

func (s *PostgresStore) DeleteExpiredQuotes(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quote_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired quotes")
	}
	return int(tag.RowsAffected()), nil
}

func scanPostgresSearch(row pgx.Row) (*Search, error) {
	var (
		search     Search
		queryJSON  []byte
		resultJSON []byte
	)
	if err := row.Scan(&search.ID, &queryJSON, &search.Status, &resultJSON,
		&search.DealCount, &search.CreatedAt, &search.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(queryJSON, &search.Query); err != nil {
		return nil, eris.Wrap(err, "unmarshal query")
	}
	if len(resultJSON) > 0 && search.Status == SearchStatusComplete {
		var result model.Result
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, eris.Wrap(err, "unmarshal result")
		}
		search.Result = &result
	}
	return &search, nil
}
