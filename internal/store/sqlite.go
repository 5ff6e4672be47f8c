package store

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"time"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/resilience"
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

// Migrate creates every table. Statements are idempotent, so the whole
// pass is retried while another writer holds the database lock.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
		for _, tb := range tables {
			for _, stmt := range sqliteDialect.createSQL(tb) {
				if _, err := s.db.ExecContext(ctx, stmt); err != nil {
					return sqliteErr(err, "sqlite: migrate %s", tb.name)
				}
			}
		}
		return nil
	})
}

// Import replaces every record of ds in one transaction.
func (s *SQLiteStore) Import(ctx context.Context, ds *Dataset) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, sqliteErr(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	var total int64
	for _, tb := range tables {
		recs := ds.rowsOf(tb)
		if recs.Len() == 0 {
			continue
		}
		stmt, err := tx.PrepareContext(ctx, sqliteInsertSQL(tb))
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: prepare import %s", tb.name)
		}
		cols := columnsOf(tb.typ)
		for i := range recs.Len() {
			if _, err := stmt.ExecContext(ctx, rowValues(recs.Index(i), cols, encodeSQLiteTime)...); err != nil {
				stmt.Close()
				return 0, sqliteErr(err, "sqlite: import %s", tb.name)
			}
		}
		stmt.Close()
		total += int64(recs.Len())
	}

	if err := tx.Commit(); err != nil {
		return 0, sqliteErr(err, "sqlite: commit import")
	}
	return total, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteErr wraps err and marks lock contention as transient so the
// gateway retries it.
func sqliteErr(err error, format string, args ...any) error {
	wrapped := eris.Wrapf(err, format, args...)
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return resilience.NewTransientError(wrapped)
		}
	}
	return wrapped
}

func encodeSQLiteTime(t time.Time) any {
	return t.UTC().Format(time.RFC3339Nano)
}

// sqliteTimeLayouts are tried in order when decoding a TEXT date.
var sqliteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseSQLiteTime returns the zero time for values that match no layout.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// holder returns a scan destination for c and a function that copies the
// scanned value into the struct field.
func holder(c column) (any, func(field reflect.Value)) {
	set := func(field reflect.Value, valid bool, v reflect.Value) {
		if !valid {
			return
		}
		if c.nullable {
			p := reflect.New(c.base)
			p.Elem().Set(v.Convert(c.base))
			field.Set(p)
			return
		}
		field.Set(v.Convert(c.base))
	}

	switch {
	case c.base == timeType:
		var h sql.NullString
		return &h, func(f reflect.Value) { set(f, h.Valid, reflect.ValueOf(parseSQLiteTime(h.String))) }
	case c.base.Kind() == reflect.Float64:
		var h sql.NullFloat64
		return &h, func(f reflect.Value) { set(f, h.Valid, reflect.ValueOf(h.Float64)) }
	case c.base.Kind() == reflect.Int:
		var h sql.NullInt64
		return &h, func(f reflect.Value) { set(f, h.Valid, reflect.ValueOf(h.Int64)) }
	case c.base.Kind() == reflect.Bool:
		var h sql.NullBool
		return &h, func(f reflect.Value) { set(f, h.Valid, reflect.ValueOf(h.Bool)) }
	default:
		var h sql.NullString
		return &h, func(f reflect.Value) { set(f, h.Valid, reflect.ValueOf(h.String)) }
	}
}

// listSQLite reads one collection into T using the db struct tags.
func listSQLite[T any](ctx context.Context, db *sql.DB, coll model.Collection) ([]T, error) {
	tb, err := tableFor(coll)
	if err != nil {
		return nil, err
	}
	if tb.typ != reflect.TypeFor[T]() {
		return nil, eris.Errorf("sqlite: collection %s does not hold %s", coll, reflect.TypeFor[T]())
	}

	rows, err := db.QueryContext(ctx, selectSQL(tb))
	if err != nil {
		return nil, sqliteErr(err, "sqlite: list %s", coll)
	}
	defer rows.Close()

	cols := columnsOf(tb.typ)
	dest := make([]any, len(cols))
	apply := make([]func(reflect.Value), len(cols))
	for i, c := range cols {
		dest[i], apply[i] = holder(c)
	}

	out := []T{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, sqliteErr(err, "sqlite: scan %s", coll)
		}
		var rec T
		rv := reflect.ValueOf(&rec).Elem()
		for i, c := range cols {
			apply[i](rv.Field(c.index))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr(err, "sqlite: iterate %s", coll)
	}
	return out, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	return listSQLite[model.Project](ctx, s.db, model.CollProjects)
}

func (s *SQLiteStore) ListBuildings(ctx context.Context) ([]model.Building, error) {
	return listSQLite[model.Building](ctx, s.db, model.CollBuildings)
}

func (s *SQLiteStore) ListUnits(ctx context.Context) ([]model.Unit, error) {
	return listSQLite[model.Unit](ctx, s.db, model.CollUnits)
}

func (s *SQLiteStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return listSQLite[model.Customer](ctx, s.db, model.CollCustomers)
}

func (s *SQLiteStore) ListSales(ctx context.Context) ([]model.Sale, error) {
	return listSQLite[model.Sale](ctx, s.db, model.CollSales)
}

func (s *SQLiteStore) ListContractTypes(ctx context.Context) ([]model.ContractType, error) {
	return listSQLite[model.ContractType](ctx, s.db, model.CollContractTypes)
}

func (s *SQLiteStore) ListSubcontractors(ctx context.Context) ([]model.Subcontractor, error) {
	return listSQLite[model.Subcontractor](ctx, s.db, model.CollSubcontractors)
}

func (s *SQLiteStore) ListContracts(ctx context.Context) ([]model.Contract, error) {
	return listSQLite[model.Contract](ctx, s.db, model.CollContracts)
}

func (s *SQLiteStore) ListProjectPhases(ctx context.Context) ([]model.ProjectPhase, error) {
	return listSQLite[model.ProjectPhase](ctx, s.db, model.CollProjectPhases)
}

func (s *SQLiteStore) ListWorkLogs(ctx context.Context) ([]model.WorkLog, error) {
	return listSQLite[model.WorkLog](ctx, s.db, model.CollWorkLogs)
}

func (s *SQLiteStore) ListSubcontractorMilestones(ctx context.Context) ([]model.SubcontractorMilestone, error) {
	return listSQLite[model.SubcontractorMilestone](ctx, s.db, model.CollSubcontractorMilestones)
}

func (s *SQLiteStore) ListInvestors(ctx context.Context) ([]model.Investor, error) {
	return listSQLite[model.Investor](ctx, s.db, model.CollInvestors)
}

func (s *SQLiteStore) ListProjectInvestments(ctx context.Context) ([]model.ProjectInvestment, error) {
	return listSQLite[model.ProjectInvestment](ctx, s.db, model.CollProjectInvestments)
}

func (s *SQLiteStore) ListBankCredits(ctx context.Context) ([]model.BankCredit, error) {
	return listSQLite[model.BankCredit](ctx, s.db, model.CollBankCredits)
}

func (s *SQLiteStore) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	return listSQLite[model.Invoice](ctx, s.db, model.CollInvoices)
}

func (s *SQLiteStore) ListPayments(ctx context.Context) ([]model.Payment, error) {
	return listSQLite[model.Payment](ctx, s.db, model.CollPayments)
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	return listSQLite[model.Company](ctx, s.db, model.CollCompanies)
}

func (s *SQLiteStore) ListBanks(ctx context.Context) ([]model.Bank, error) {
	return listSQLite[model.Bank](ctx, s.db, model.CollBanks)
}

func (s *SQLiteStore) ListBankAccounts(ctx context.Context) ([]model.BankAccount, error) {
	return listSQLite[model.BankAccount](ctx, s.db, model.CollBankAccounts)
}

func (s *SQLiteStore) ListCreditLines(ctx context.Context) ([]model.CreditLine, error) {
	return listSQLite[model.CreditLine](ctx, s.db, model.CollCreditLines)
}

func (s *SQLiteStore) ListCompanyLoans(ctx context.Context) ([]model.CompanyLoan, error) {
	return listSQLite[model.CompanyLoan](ctx, s.db, model.CollCompanyLoans)
}

func (s *SQLiteStore) ListCreditAllocations(ctx context.Context) ([]model.CreditAllocation, error) {
	return listSQLite[model.CreditAllocation](ctx, s.db, model.CollCreditAllocations)
}

func (s *SQLiteStore) ListTicCostStructures(ctx context.Context) ([]model.TicCostStructure, error) {
	return listSQLite[model.TicCostStructure](ctx, s.db, model.CollTicCostStructures)
}

func (s *SQLiteStore) ListOfficeSuppliers(ctx context.Context) ([]model.OfficeSupplier, error) {
	return listSQLite[model.OfficeSupplier](ctx, s.db, model.CollOfficeSuppliers)
}

func (s *SQLiteStore) ListRetailProjects(ctx context.Context) ([]model.RetailProject, error) {
	return listSQLite[model.RetailProject](ctx, s.db, model.CollRetailProjects)
}

func (s *SQLiteStore) ListRetailPhases(ctx context.Context) ([]model.RetailPhase, error) {
	return listSQLite[model.RetailPhase](ctx, s.db, model.CollRetailPhases)
}

func (s *SQLiteStore) ListRetailContracts(ctx context.Context) ([]model.RetailContract, error) {
	return listSQLite[model.RetailContract](ctx, s.db, model.CollRetailContracts)
}

func (s *SQLiteStore) ListRetailLandPlots(ctx context.Context) ([]model.RetailLandPlot, error) {
	return listSQLite[model.RetailLandPlot](ctx, s.db, model.CollRetailLandPlots)
}

func (s *SQLiteStore) ListRetailCustomers(ctx context.Context) ([]model.RetailCustomer, error) {
	return listSQLite[model.RetailCustomer](ctx, s.db, model.CollRetailCustomers)
}

func (s *SQLiteStore) ListRetailSuppliers(ctx context.Context) ([]model.RetailSupplier, error) {
	return listSQLite[model.RetailSupplier](ctx, s.db, model.CollRetailSuppliers)
}
