package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
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
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lightning_state (
	scope      TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (scope, key)
);

CREATE INDEX IF NOT EXISTS idx_lightning_state_key ON lightning_state(key);
CREATE INDEX IF NOT EXISTS idx_lightning_state_updated_at ON lightning_state(updated_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM lightning_state WHERE scope = $1 AND key = $2`,
		scope, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: get %s", key)
	}
	return []byte(value), true, nil
}

func (s *PostgresStore) Set(ctx context.Context, scope, key string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lightning_state (scope, key, value, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		scope, key, string(value), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set %s", key)
}

func (s *PostgresStore) Remove(ctx context.Context, scope, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM lightning_state WHERE scope = $1 AND key = $2`,
		scope, key,
	)
	return eris.Wrapf(err, "postgres: remove %s", key)
}

func (s *PostgresStore) ForceClearAll(ctx context.Context, scope string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM lightning_state WHERE scope = $1 AND key = ANY($2)`,
		scope, keys,
	)
	return eris.Wrap(err, "postgres: force clear")
}

func (s *PostgresStore) ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT value FROM lightning_state WHERE key = $1 ORDER BY updated_at DESC LIMIT $2`,
		KeySessionRecord, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []model.SessionRecord
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		var rec model.SessionRecord
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal session")
		}
		sessions = append(sessions, rec)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}
