package session

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_Get_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM lightning_state`).
		WithArgs("scope-a", KeySummary).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`{"raw":"text"}`))

	value, found, err := s.Get(context.Background(), "scope-a", KeySummary)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"raw":"text"}`, string(value))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_Absent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM lightning_state`).
		WithArgs("scope-a", KeySummary).
		WillReturnError(pgx.ErrNoRows)

	_, found, err := s.Get(context.Background(), "scope-a", KeySummary)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(scope, key\) DO UPDATE`).
		WithArgs("scope-a", KeyRawAnalysis, `"analysis"`, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Set(context.Background(), "scope-a", KeyRawAnalysis, []byte(`"analysis"`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Remove(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM lightning_state WHERE scope = \$1 AND key = \$2`).
		WithArgs("scope-a", KeySummaryReady).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := s.Remove(context.Background(), "scope-a", KeySummaryReady)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ForceClearAll_SingleStatement(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM lightning_state WHERE scope = \$1 AND key = ANY\(\$2\)`).
		WithArgs("scope-a", KnownKeys).
		WillReturnResult(pgxmock.NewResult("DELETE", int64(len(KnownKeys))))

	err := s.ForceClearAll(context.Background(), "scope-a", KnownKeys)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ForceClearAll_NoKeysIsNoop(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.ForceClearAll(context.Background(), "scope-a", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSessions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM lightning_state WHERE key = \$1 ORDER BY updated_at DESC`).
		WithArgs(KeySessionRecord, 10).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).
			AddRow(`{"id":"newer","step":"q2_outreach_preference"}`).
			AddRow(`{"id":"older","step":"complete"}`))

	records, err := s.ListSessions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "newer", records[0].ID)
	assert.Equal(t, "older", records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSessions_BadJSON(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM lightning_state WHERE key = \$1`).
		WithArgs(KeySessionRecord, 100).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`not-json`))

	_, err := s.ListSessions(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal session")
}
