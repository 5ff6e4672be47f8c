package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Inflow, Classify(model.InvoiceOutgoingSales))
	assert.Equal(t, Inflow, Classify(model.InvoiceIncomingInvestment))
	assert.Equal(t, Outflow, Classify(model.InvoiceIncomingSupplier))
	assert.Equal(t, Outflow, Classify(model.InvoiceIncomingBank))
	assert.Equal(t, None, Classify("REFUND"))
	assert.Equal(t, "outflow", Outflow.String())
	assert.Equal(t, "none", None.String())
}

func TestSplit(t *testing.T) {
	invoices := []model.Invoice{
		{ID: "i1", InvoiceType: model.InvoiceOutgoingSales},
		{ID: "i2", InvoiceType: model.InvoiceIncomingSupplier},
		{ID: "i3", InvoiceType: "REFUND"},
	}
	payments := []model.Payment{
		{ID: "p1", InvoiceID: "i1"},
		{ID: "p2", InvoiceID: "i2"},
		{ID: "p3", InvoiceID: "i3"},
		{ID: "p4", InvoiceID: "i9"},
		{ID: "p5", InvoiceID: "i1"},
	}

	in, out, skips := Split(payments, invoices)
	require.Len(t, in, 2)
	assert.Equal(t, "p1", in[0].ID)
	assert.Equal(t, "p5", in[1].ID)
	require.Len(t, out, 1)
	assert.Equal(t, "p2", out[0].ID)
	assert.Equal(t, []aggregate.Skip{
		{Collection: model.CollPayments, RecordID: "p3", Reason: aggregate.ReasonUnknownType},
		{Collection: model.CollPayments, RecordID: "p4", Reason: aggregate.ReasonNoInvoice},
	}, skips)
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, MonthsBetween(date(2025, 1, 31), date(2025, 1, 1)))
	assert.Equal(t, 5, MonthsBetween(date(2024, 9, 15), date(2025, 2, 1)))
	assert.Equal(t, 12, MonthsBetween(date(2024, 1, 1), date(2025, 1, 31)))
	assert.Equal(t, -1, MonthsBetween(date(2025, 2, 1), date(2025, 1, 31)))
}

func TestBuckets(t *testing.T) {
	in := []model.Payment{
		{Amount: 100, PaymentDate: date(2025, 1, 1)},
		{Amount: 50.5, PaymentDate: time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)},
		{Amount: 300, PaymentDate: date(2025, 3, 15)},
		{Amount: 999, PaymentDate: date(2024, 12, 31)},
	}
	out := []model.Payment{
		{Amount: 80, PaymentDate: date(2025, 1, 20)},
		{Amount: 500, PaymentDate: date(2025, 3, 1)},
	}
	r := Range{Start: date(2025, 1, 20), End: date(2025, 3, 2)}

	buckets := Collect(in, out, r)
	require.Len(t, buckets, 3)

	assert.Equal(t, "2025-01", buckets[0].Month)
	assert.Equal(t, date(2025, 1, 1), buckets[0].Start)
	assert.Equal(t, date(2025, 2, 1).Add(-time.Nanosecond), buckets[0].End)
	assert.InDelta(t, 150.5, buckets[0].Inflow, 0.001)
	assert.InDelta(t, 80.0, buckets[0].Outflow, 0.001)
	assert.InDelta(t, 70.5, buckets[0].Net, 0.001)

	assert.Equal(t, "2025-02", buckets[1].Month)
	assert.Zero(t, buckets[1].Inflow)
	assert.Zero(t, buckets[1].Net)

	assert.Equal(t, "2025-03", buckets[2].Month)
	assert.InDelta(t, -200.0, buckets[2].Net, 0.001)

	totals := Sum(buckets)
	assert.InDelta(t, 450.5, totals.Inflow, 0.001)
	assert.InDelta(t, 580.0, totals.Outflow, 0.001)
	assert.InDelta(t, -129.5, totals.Net, 0.001)
}

func TestBuckets_CoverageProperty(t *testing.T) {
	starts := []time.Time{date(2023, 11, 30), date(2024, 2, 29), date(2025, 1, 1)}
	spans := []int{0, 1, 5, 11, 12, 25}
	for _, start := range starts {
		for _, span := range spans {
			end := start.AddDate(0, span, 0)
			r := Range{Start: start, End: end}
			buckets := Collect(nil, []model.Payment{{Amount: 1, PaymentDate: start}}, r)

			require.Len(t, buckets, MonthsBetween(start, end)+1)
			for i, b := range buckets {
				assert.Equal(t, b.Inflow-b.Outflow, b.Net)
				if i > 0 {
					assert.True(t, b.Start.After(buckets[i-1].Start))
					assert.Equal(t, buckets[i-1].End.Add(time.Nanosecond), b.Start, "no gaps")
				}
			}
		}
	}
}

func TestBuckets_Restartable(t *testing.T) {
	seq := Buckets([]model.Payment{{Amount: 10, PaymentDate: date(2025, 2, 2)}}, nil, Range{Start: date(2025, 1, 1), End: date(2025, 4, 1)})

	var first, second []Bucket
	for b := range seq {
		first = append(first, b)
	}
	for b := range seq {
		second = append(second, b)
	}
	assert.Len(t, first, 4)
	assert.Equal(t, first, second)

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestBuckets_InvertedRange(t *testing.T) {
	assert.Empty(t, Collect(nil, nil, Range{Start: date(2025, 5, 1), End: date(2025, 1, 1)}))
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: date(2025, 1, 10), End: date(2025, 1, 20)}
	assert.True(t, r.Contains(date(2025, 1, 10)))
	assert.True(t, r.Contains(time.Date(2025, 1, 20, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(date(2025, 1, 21)))
	assert.False(t, r.Contains(time.Date(2025, 1, 9, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Time{}))
}
