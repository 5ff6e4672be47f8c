package aggregate

import (
	"math"

	"github.com/shopspring/decimal"
)

// Sum accumulates float amounts exactly. The zero value is an empty sum.
type Sum struct {
	d decimal.Decimal
}

// Add adds v to the sum.
func (s *Sum) Add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.d = s.d.Add(decimal.NewFromFloat(v))
}

// AddSum adds another sum.
func (s *Sum) AddSum(o Sum) {
	s.d = s.d.Add(o.d)
}

// Float returns the sum rounded to cents.
func (s Sum) Float() float64 {
	return s.d.Round(2).InexactFloat64()
}

// Decimal returns the exact sum.
func (s Sum) Decimal() decimal.Decimal { return s.d }

// Total sums values exactly and rounds to cents.
func Total(values ...float64) float64 {
	var s Sum
	for _, v := range values {
		s.Add(v)
	}
	return s.Float()
}

// Cents rounds an amount to cents.
func Cents(v float64) float64 {
	return round(v, 2)
}

// Diff returns a-b computed exactly.
func Diff(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Ratio returns num/den, or 0 when den is 0.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return round(num/den, 4)
}

// Percent returns num/den*100, or 0 when den is 0.
func Percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return round(num/den*100, 2)
}

// PercentOf is Percent for counts.
func PercentOf(num, den int) float64 {
	return Percent(float64(num), float64(den))
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
