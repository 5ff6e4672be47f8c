package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "units",
		Columns:      []string{"id", "price"},
		ConflictKeys: []string{"id"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "units",
		ConflictKeys: []string{"id"},
	}, [][]any{{"u1", 100.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   "units",
		Columns: []string{"id", "price"},
	}, [][]any{{"u1", 100.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock := newMockPool(t)
	rows := [][]any{{"u1", 100.0}, {"u2", 200.0}}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_units" \(LIKE "units" INCLUDING DEFAULTS\)`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_units"}, []string{"id", "price"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "units" .* ON CONFLICT \("id"\) DO UPDATE SET "price" = EXCLUDED."price"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "units",
		Columns:      []string{"id", "price"},
		ConflictKeys: []string{"id"},
	}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_BeginFails(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "units",
		Columns:      []string{"id"},
		ConflictKeys: []string{"id"},
	}, [][]any{{"u1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestUpsertSQL_OnlyKeysDoesNothing(t *testing.T) {
	sql := upsertSQL(UpsertConfig{
		Table:        "contract_types",
		Columns:      []string{"id"},
		ConflictKeys: []string{"id"},
	}, "_tmp")
	assert.Contains(t, sql, "ON CONFLICT (\"id\") DO NOTHING")
}

func TestUpsertSQL_ExplicitUpdateCols(t *testing.T) {
	sql := upsertSQL(UpsertConfig{
		Table:        "units",
		Columns:      []string{"id", "price", "status"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"status"},
	}, "_tmp")
	assert.Contains(t, sql, `DO UPDATE SET "status" = EXCLUDED."status"`)
	assert.NotContains(t, sql, `"price" = EXCLUDED`)
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"reporting.units", `"reporting"."units"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}
