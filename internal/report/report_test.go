package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/metrics"
	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/snapshot"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDefaultRequest(t *testing.T) {
	now := time.Date(2026, 8, 31, 17, 45, 0, 0, time.UTC)
	req := DefaultRequest(now, 6)

	assert.Equal(t, snapshot.AllProjects, req.ProjectFilter)
	assert.Equal(t, date(2026, 8, 31), req.End)
	assert.Equal(t, date(2026, 3, 3), req.Start, "AddDate normalizes Feb 31")
	require.NoError(t, req.Validate())
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{ProjectFilter: "all", Start: date(2026, 1, 1), End: date(2026, 6, 30)}, false},
		{"same day", Request{ProjectFilter: "p1", Start: date(2026, 1, 1), End: date(2026, 1, 1)}, false},
		{"end before start", Request{ProjectFilter: "all", Start: date(2026, 6, 1), End: date(2026, 1, 1)}, true},
		{"missing filter", Request{Start: date(2026, 1, 1), End: date(2026, 2, 1)}, true},
		{"missing start", Request{ProjectFilter: "all", End: date(2026, 2, 1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRequestJSON(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"project_filter":"p1","start":"2026-01-15","end":"2026-03-01T10:00:00Z"}`), &req))
	assert.Equal(t, "p1", req.ProjectFilter)
	assert.Equal(t, date(2026, 1, 15), req.Start)
	assert.Equal(t, date(2026, 3, 1), req.End)

	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"project_filter":"p1","start":"2026-01-15","end":"2026-03-01"}`, string(b))

	err = json.Unmarshal([]byte(`{"start":"15/01/2026"}`), &req)
	assert.Error(t, err)
}

func TestRequestWithDefaults(t *testing.T) {
	def := DefaultRequest(date(2026, 6, 30), 6)
	req := Request{Start: date(2026, 5, 1)}.WithDefaults(def)

	assert.Equal(t, "all", req.ProjectFilter)
	assert.Equal(t, date(2026, 5, 1), req.Start)
	assert.Equal(t, def.End, req.End)
}

func TestAssemble_MissingGroups(t *testing.T) {
	_, err := Assemble(Parts{States: map[model.Collection]snapshot.State{}})
	assert.Error(t, err)

	_, err = Assemble(Parts{Groups: &metrics.Groups{}})
	assert.Error(t, err)
}

func TestAssemble_Sections(t *testing.T) {
	groups := &metrics.Groups{
		ExecutiveSummary: metrics.ExecutiveSummary{TotalRevenue: 500},
		KPIs:             metrics.KPIs{SalesRate: 40},
	}
	r, err := Assemble(Parts{
		Request:         Request{ProjectFilter: "all"},
		Groups:          groups,
		Recommendations: []string{"a"},
		States:          map[model.Collection]snapshot.State{model.CollProjects: snapshot.Some},
	})
	require.NoError(t, err)

	assert.Equal(t, 500.0, r.ExecutiveSummary.TotalRevenue)
	assert.Equal(t, 40.0, r.KPIs.SalesRate)
	assert.Equal(t, []string{"a"}, r.Insights.Recommendations)
	assert.NotNil(t, r.CashFlow)
	assert.NotNil(t, r.Projects)
	assert.NotNil(t, r.Insights.TopProjects)
	assert.NotNil(t, r.Insights.TopByMargin)
	assert.NotNil(t, r.ContractTypes)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, key := range []string{
		"executive_summary", "kpis", "sales_performance", "funding_structure",
		"construction_status", "accounting_overview", "tic_cost_management",
		"office_expenses", "company_credits", "company_loans", "bank_accounts",
		"buildings_units", "retail_portfolio", "contract_types", "cash_flow",
		"projects", "risks", "insights", "diagnostics",
	} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, []any{}, raw["cash_flow"])
	assert.Equal(t, "some", raw["diagnostics"].(map[string]any)["collections"].(map[string]any)["projects"])
}

func TestAssemble_DedupsSkips(t *testing.T) {
	dup := aggregate.Skip{Collection: model.CollPayments, RecordID: "pay-2", Reason: aggregate.ReasonNoInvoice}
	r, err := Assemble(Parts{
		Groups: &metrics.Groups{},
		States: map[model.Collection]snapshot.State{},
		Skips: []aggregate.Skip{
			dup,
			{Collection: model.CollUnits, RecordID: "u-1", Reason: aggregate.ReasonNegativeArea},
			dup,
			{Collection: model.CollPayments, RecordID: "pay-1", Reason: aggregate.ReasonNegativeAmount},
		},
	})
	require.NoError(t, err)

	require.Equal(t, 3, r.Diagnostics.SkippedCount)
	assert.Equal(t, "pay-1", r.Diagnostics.Skipped[0].RecordID)
	assert.Equal(t, "pay-2", r.Diagnostics.Skipped[1].RecordID)
	assert.Equal(t, model.CollUnits, r.Diagnostics.Skipped[2].Collection)
}
