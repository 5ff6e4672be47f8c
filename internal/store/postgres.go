package store

import (
	"context"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/portfolio-report/internal/db"
	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to postgres and returns a store over the pool.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. The caller keeps ownership.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates every table, retrying the idempotent pass on
// connection failures.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
		for _, tb := range tables {
			for _, stmt := range postgresDialect.createSQL(tb) {
				if _, err := s.pool.Exec(ctx, stmt); err != nil {
					return eris.Wrapf(err, "postgres: migrate %s", tb.name)
				}
			}
		}
		return nil
	})
}

// Import upserts every collection of ds, keyed on id.
func (s *PostgresStore) Import(ctx context.Context, ds *Dataset) (int64, error) {
	var total int64
	for _, tb := range tables {
		recs := ds.rowsOf(tb)
		if recs.Len() == 0 {
			continue
		}
		cols := columnsOf(tb.typ)
		rows := make([][]any, recs.Len())
		for i := range recs.Len() {
			rows[i] = rowValues(recs.Index(i), cols, func(t time.Time) any { return t })
		}
		n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
			Table:        string(tb.name),
			Columns:      columnNames(cols),
			ConflictKeys: []string{"id"},
		}, rows)
		if err != nil {
			return total, eris.Wrapf(err, "postgres: import %s", tb.name)
		}
		zap.L().Debug("postgres: imported collection",
			zap.String("collection", string(tb.name)),
			zap.Int64("rows", n),
		)
		total += n
	}
	return total, nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// listPostgres reads one collection, matching columns to fields by db tag.
func listPostgres[T any](ctx context.Context, pool db.Pool, coll model.Collection) ([]T, error) {
	tb, err := tableFor(coll)
	if err != nil {
		return nil, err
	}
	if tb.typ != reflect.TypeFor[T]() {
		return nil, eris.Errorf("postgres: collection %s does not hold %s", coll, reflect.TypeFor[T]())
	}
	rows, err := pool.Query(ctx, selectSQL(tb))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", coll)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: scan %s", coll)
	}
	return out, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	return listPostgres[model.Project](ctx, s.pool, model.CollProjects)
}

func (s *PostgresStore) ListBuildings(ctx context.Context) ([]model.Building, error) {
	return listPostgres[model.Building](ctx, s.pool, model.CollBuildings)
}

func (s *PostgresStore) ListUnits(ctx context.Context) ([]model.Unit, error) {
	return listPostgres[model.Unit](ctx, s.pool, model.CollUnits)
}

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return listPostgres[model.Customer](ctx, s.pool, model.CollCustomers)
}

func (s *PostgresStore) ListSales(ctx context.Context) ([]model.Sale, error) {
	return listPostgres[model.Sale](ctx, s.pool, model.CollSales)
}

func (s *PostgresStore) ListContractTypes(ctx context.Context) ([]model.ContractType, error) {
	return listPostgres[model.ContractType](ctx, s.pool, model.CollContractTypes)
}

func (s *PostgresStore) ListSubcontractors(ctx context.Context) ([]model.Subcontractor, error) {
	return listPostgres[model.Subcontractor](ctx, s.pool, model.CollSubcontractors)
}

func (s *PostgresStore) ListContracts(ctx context.Context) ([]model.Contract, error) {
	return listPostgres[model.Contract](ctx, s.pool, model.CollContracts)
}

func (s *PostgresStore) ListProjectPhases(ctx context.Context) ([]model.ProjectPhase, error) {
	return listPostgres[model.ProjectPhase](ctx, s.pool, model.CollProjectPhases)
}

func (s *PostgresStore) ListWorkLogs(ctx context.Context) ([]model.WorkLog, error) {
	return listPostgres[model.WorkLog](ctx, s.pool, model.CollWorkLogs)
}

func (s *PostgresStore) ListSubcontractorMilestones(ctx context.Context) ([]model.SubcontractorMilestone, error) {
	return listPostgres[model.SubcontractorMilestone](ctx, s.pool, model.CollSubcontractorMilestones)
}

func (s *PostgresStore) ListInvestors(ctx context.Context) ([]model.Investor, error) {
	return listPostgres[model.Investor](ctx, s.pool, model.CollInvestors)
}

func (s *PostgresStore) ListProjectInvestments(ctx context.Context) ([]model.ProjectInvestment, error) {
	return listPostgres[model.ProjectInvestment](ctx, s.pool, model.CollProjectInvestments)
}

func (s *PostgresStore) ListBankCredits(ctx context.Context) ([]model.BankCredit, error) {
	return listPostgres[model.BankCredit](ctx, s.pool, model.CollBankCredits)
}

func (s *PostgresStore) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	return listPostgres[model.Invoice](ctx, s.pool, model.CollInvoices)
}

func (s *PostgresStore) ListPayments(ctx context.Context) ([]model.Payment, error) {
	return listPostgres[model.Payment](ctx, s.pool, model.CollPayments)
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	return listPostgres[model.Company](ctx, s.pool, model.CollCompanies)
}

func (s *PostgresStore) ListBanks(ctx context.Context) ([]model.Bank, error) {
	return listPostgres[model.Bank](ctx, s.pool, model.CollBanks)
}

func (s *PostgresStore) ListBankAccounts(ctx context.Context) ([]model.BankAccount, error) {
	return listPostgres[model.BankAccount](ctx, s.pool, model.CollBankAccounts)
}

func (s *PostgresStore) ListCreditLines(ctx context.Context) ([]model.CreditLine, error) {
	return listPostgres[model.CreditLine](ctx, s.pool, model.CollCreditLines)
}

func (s *PostgresStore) ListCompanyLoans(ctx context.Context) ([]model.CompanyLoan, error) {
	return listPostgres[model.CompanyLoan](ctx, s.pool, model.CollCompanyLoans)
}

func (s *PostgresStore) ListCreditAllocations(ctx context.Context) ([]model.CreditAllocation, error) {
	return listPostgres[model.CreditAllocation](ctx, s.pool, model.CollCreditAllocations)
}

func (s *PostgresStore) ListTicCostStructures(ctx context.Context) ([]model.TicCostStructure, error) {
	return listPostgres[model.TicCostStructure](ctx, s.pool, model.CollTicCostStructures)
}

func (s *PostgresStore) ListOfficeSuppliers(ctx context.Context) ([]model.OfficeSupplier, error) {
	return listPostgres[model.OfficeSupplier](ctx, s.pool, model.CollOfficeSuppliers)
}

func (s *PostgresStore) ListRetailProjects(ctx context.Context) ([]model.RetailProject, error) {
	return listPostgres[model.RetailProject](ctx, s.pool, model.CollRetailProjects)
}

func (s *PostgresStore) ListRetailPhases(ctx context.Context) ([]model.RetailPhase, error) {
	return listPostgres[model.RetailPhase](ctx, s.pool, model.CollRetailPhases)
}

func (s *PostgresStore) ListRetailContracts(ctx context.Context) ([]model.RetailContract, error) {
	return listPostgres[model.RetailContract](ctx, s.pool, model.CollRetailContracts)
}

func (s *PostgresStore) ListRetailLandPlots(ctx context.Context) ([]model.RetailLandPlot, error) {
	return listPostgres[model.RetailLandPlot](ctx, s.pool, model.CollRetailLandPlots)
}

func (s *PostgresStore) ListRetailCustomers(ctx context.Context) ([]model.RetailCustomer, error) {
	return listPostgres[model.RetailCustomer](ctx, s.pool, model.CollRetailCustomers)
}

func (s *PostgresStore) ListRetailSuppliers(ctx context.Context) ([]model.RetailSupplier, error) {
	return listPostgres[model.RetailSupplier](ctx, s.pool, model.CollRetailSuppliers)
}
