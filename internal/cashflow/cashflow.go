// Package cashflow buckets payments into calendar months.
package cashflow

import (
	"iter"
	"time"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
)

// Direction is the cash-flow direction of an invoice type.
type Direction int

const (
	// None is an unknown invoice type; its payments are left out.
	None Direction = iota
	Inflow
	Outflow
)

func (d Direction) String() string {
	switch d {
	case Inflow:
		return "inflow"
	case Outflow:
		return "outflow"
	default:
		return "none"
	}
}

// Classify looks t up in the fixed invoice type table.
func Classify(t model.InvoiceType) Direction {
	switch {
	case t.Inflow():
		return Inflow
	case t.Outflow():
		return Outflow
	default:
		return None
	}
}

// Range is an inclusive date range.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls on a day within the range. Both ends
// are whole days.
func (r Range) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	t = t.UTC()
	from := dayStart(r.Start)
	to := dayStart(r.End).AddDate(0, 0, 1)
	return !t.Before(from) && t.Before(to)
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Bucket is the cash flow of one calendar month.
type Bucket struct {
	Month   string    `json:"month"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Inflow  float64   `json:"inflow"`
	Outflow float64   `json:"outflow"`
	Net     float64   `json:"net"`
}

// Totals sums a series of buckets.
type Totals struct {
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
	Net     float64 `json:"net"`
}

// Split classifies payments by the type of their invoice. Payments whose
// invoice is missing or of an unknown type are returned as skips.
func Split(payments []model.Payment, invoices []model.Invoice) (inflow, outflow []model.Payment, skips []aggregate.Skip) {
	types := make(map[string]model.InvoiceType, len(invoices))
	for _, inv := range invoices {
		types[inv.ID] = inv.InvoiceType
	}
	for _, p := range payments {
		t, ok := types[p.InvoiceID]
		if !ok {
			skips = append(skips, aggregate.Skip{Collection: model.CollPayments, RecordID: p.ID, Reason: aggregate.ReasonNoInvoice})
			continue
		}
		switch Classify(t) {
		case Inflow:
			inflow = append(inflow, p)
		case Outflow:
			outflow = append(outflow, p)
		default:
			skips = append(skips, aggregate.Skip{Collection: model.CollPayments, RecordID: p.ID, Reason: aggregate.ReasonUnknownType})
		}
	}
	return inflow, outflow, skips
}

// MonthsBetween counts calendar month boundaries from start to end. It is
// negative when end is in an earlier month than start.
func MonthsBetween(start, end time.Time) int {
	start, end = start.UTC(), end.UTC()
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// Buckets yields one bucket per calendar month of r, oldest first. The
// sequence is finite and may be ranged over any number of times. An
// inverted range yields nothing.
func Buckets(inflow, outflow []model.Payment, r Range) iter.Seq[Bucket] {
	return func(yield func(Bucket) bool) {
		n := MonthsBetween(r.Start, r.End)
		if n < 0 {
			return
		}
		in := byMonth(inflow)
		out := byMonth(outflow)

		first := monthStart(r.Start)
		for i := 0; i <= n; i++ {
			start := first.AddDate(0, i, 0)
			key := start.Format("2006-01")
			inSum, outSum := in[key], out[key]
			b := Bucket{
				Month:   key,
				Start:   start,
				End:     start.AddDate(0, 1, 0).Add(-time.Nanosecond),
				Inflow:  inSum.Float(),
				Outflow: outSum.Float(),
			}
			b.Net = aggregate.Diff(b.Inflow, b.Outflow)
			if !yield(b) {
				return
			}
		}
	}
}

// Collect materializes the buckets of r.
func Collect(inflow, outflow []model.Payment, r Range) []Bucket {
	buckets := make([]Bucket, 0, max(MonthsBetween(r.Start, r.End)+1, 0))
	for b := range Buckets(inflow, outflow, r) {
		buckets = append(buckets, b)
	}
	return buckets
}

// Sum totals buckets.
func Sum(buckets []Bucket) Totals {
	var in, out aggregate.Sum
	for _, b := range buckets {
		in.Add(b.Inflow)
		out.Add(b.Outflow)
	}
	t := Totals{Inflow: in.Float(), Outflow: out.Float()}
	t.Net = aggregate.Diff(t.Inflow, t.Outflow)
	return t
}

func byMonth(payments []model.Payment) map[string]aggregate.Sum {
	m := make(map[string]aggregate.Sum)
	for _, p := range payments {
		key := p.PaymentDate.UTC().Format("2006-01")
		s := m[key]
		s.Add(p.Amount)
		m[key] = s
	}
	return m
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
