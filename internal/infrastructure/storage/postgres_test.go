package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgres(mock), mock
}

func TestPostgres_SeedKnownIDs(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"game_id"}).
		AddRow("abc1").
		AddRow("abc2")
	mock.ExpectQuery(`SELECT game_id FROM harvested_games`).
		WillReturnRows(rows)

	ids, err := store.SeedKnownIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"abc1", "abc2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SeedKnownIDsQueryError(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT game_id FROM harvested_games`).
		WillReturnError(errors.New("connection refused"))

	_, err := store.SeedKnownIDs(context.Background())
	assert.ErrorContains(t, err, "query known ids")
}

func TestPostgres_AppendKnown(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO harvested_games \(game_id\) VALUES \(\$1\),\(\$2\) ON CONFLICT \(game_id\) DO NOTHING`).
		WithArgs("abc1", "abc2").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	err := store.AppendKnown(context.Background(), []string{"abc1", "abc2"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendKnownEmptyIsNoop(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	require.NoError(t, store.AppendKnown(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
