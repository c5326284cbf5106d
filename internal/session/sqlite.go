package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
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
CREATE TABLE IF NOT EXISTS lightning_state (
	scope      TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (scope, key)
);

CREATE INDEX IF NOT EXISTS idx_lightning_state_key ON lightning_state(key);
CREATE INDEX IF NOT EXISTS idx_lightning_state_updated_at ON lightning_state(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM lightning_state WHERE scope = ? AND key = ?`,
		scope, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: get %s", key)
	}
	return []byte(value), true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, scope, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lightning_state (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		scope, key, string(value), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set %s", key)
}

func (s *SQLiteStore) Remove(ctx context.Context, scope, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM lightning_state WHERE scope = ? AND key = ?`,
		scope, key,
	)
	return eris.Wrapf(err, "sqlite: remove %s", key)
}

func (s *SQLiteStore) ForceClearAll(ctx context.Context, scope string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin clear")
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM lightning_state WHERE scope = ? AND key = ?`,
			scope, key,
		); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s", key)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit clear")
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM lightning_state WHERE key = ? ORDER BY updated_at DESC LIMIT ?`,
		KeySessionRecord, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []model.SessionRecord
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		var rec model.SessionRecord
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal session")
		}
		sessions = append(sessions, rec)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}
