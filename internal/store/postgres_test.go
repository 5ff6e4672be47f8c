package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/portfolio-report/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_ListContractTypes(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name FROM contract_types ORDER BY id`).
		WillReturnRows(mock.NewRows([]string{"id", "name"}).
			AddRow("ct1", "Masonry").
			AddRow("ct2", "Electrical"))

	types, err := s.ListContractTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.ContractType{{ID: "ct1", Name: "Masonry"}, {ID: "ct2", Name: "Electrical"}}, types)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBanks_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name FROM banks`).
		WillReturnRows(mock.NewRows([]string{"id", "name"}))

	banks, err := s.ListBanks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, banks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRetailCustomers_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name FROM retail_customers`).
		WillReturnError(errors.New("connection refused"))

	_, err := s.ListRetailCustomers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list retail_customers")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	for _, tb := range tables {
		for _, stmt := range postgresDialect.createSQL(tb) {
			mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		}
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MigrateFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS projects`).WillReturnError(errors.New("permission denied"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: migrate projects")
}

func TestPostgresStore_MigrateRetriesConnectionFailure(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS projects`).WillReturnError(&pgconn.PgError{Code: "08006"})
	for _, tb := range tables {
		for _, stmt := range postgresDialect.createSQL(tb) {
			mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		}
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Import(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ds := &Dataset{ContractTypes: []model.ContractType{{ID: "ct1", Name: "Masonry"}}}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_contract_types"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_contract_types"}, []string{"id", "name"}).
		WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "contract_types"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := s.Import(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CloseWithoutOwnership(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	assert.NoError(t, s.Close())
}
