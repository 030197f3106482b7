package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pointfindr/points-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS searches (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     TEXT,
	deal_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS quote_cache (
	key        TEXT PRIMARY KEY,
	fares      TEXT NOT NULL,
	quoted_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_searches_status ON searches(status);
CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
CREATE INDEX IF NOT EXISTS idx_quote_cache_expires_at ON quote_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSearch(ctx context.Context, q model.Query) (*Search, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	queryJSON, err := json.Marshal(q)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal query")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO searches (id, query, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(queryJSON), string(SearchStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert search")
	}

	return &Search{
		ID:        id,
		Query:     q,
		Status:    SearchStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteSearch(ctx context.Context, id string, result *model.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE searches SET status = ?, result = ?, deal_count = ?, updated_at = ? WHERE id = ?`,
		string(SearchStatusComplete), string(resultJSON), len(result.AllDeals), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete search %s", id)
	}
	return checkRowsAffected(res, "search", id)
}

func (s *SQLiteStore) FailSearch(ctx context.Context, id string, cause error) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE searches SET status = ?, result = ?, updated_at = ? WHERE id = ?`,
		string(SearchStatusFailed), cause.Error(), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail search %s", id)
	}
	return checkRowsAffected(res, "search", id)
}

func (s *SQLiteStore) GetSearch(ctx context.Context, id string) (*Search, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, status, result, deal_count, created_at, updated_at FROM searches WHERE id = ?`,
		id,
	)
	search, err := scanSearch(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: search %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get search %s", id)
	}
	return search, nil
}

func (s *SQLiteStore) ListSearches(ctx context.Context, limit int) ([]Search, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, status, result, deal_count, created_at, updated_at
		 FROM searches ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list searches")
	}
	defer rows.Close() //nolint:errcheck

	var searches []Search
	for rows.Next() {
		search, err := scanSearch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search")
		}
		searches = append(searches, *search)
	}
	return searches, eris.Wrap(rows.Err(), "sqlite: iterate searches")
}

func (s *SQLiteStore) GetCachedQuote(ctx context.Context, key string) ([]byte, error) {
	var fares string
	err := s.db.QueryRowContext(ctx,
		`SELECT fares FROM quote_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().UTC(),
	).Scan(&fares)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cached quote %s", key)
	}
	return []byte(fares), nil
}

func (s *SQLiteStore) SetCachedQuote(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quote_cache (key, fares, quoted_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET fares = excluded.fares, quoted_at = excluded.quoted_at, expires_at = excluded.expires_at`,
		key, string(data), now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: set cached quote %s", key)
}

func (s *SQLiteStore) DeleteExpiredQuotes(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM quote_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired quotes")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearch(row rowScanner) (*Search, error) {
	var (
		search     Search
		queryJSON  string
		resultJSON sql.NullString
	)
	if err := row.Scan(&search.ID, &queryJSON, &search.Status, &resultJSON,
		&search.DealCount, &search.CreatedAt, &search.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(queryJSON), &search.Query); err != nil {
		return nil, eris.Wrap(err, "unmarshal query")
	}
	if resultJSON.Valid && search.Status == SearchStatusComplete {
		var result model.Result
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, eris.Wrap(err, "unmarshal result")
		}
		search.Result = &result
	}
	return &search, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s %s not found", kind, id)
	}
	return nil
}
