package render

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders typed values as display strings.
type Formatter struct {
	currency string
	printer  *message.Printer
}

// NewFormatter creates a Formatter for an ISO 4217 currency code and a BCP
// 47 locale. An unknown locale falls back to English.
func NewFormatter(currency, locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{currency: currency, printer: message.NewPrinter(tag)}
}

// Format renders v.
func (f *Formatter) Format(v Value) string {
	switch v.Kind {
	case KindMoney:
		return f.Money(v.Num)
	case KindPercent:
		return f.printer.Sprintf("%.1f%%", v.Num)
	case KindCount:
		return f.printer.Sprintf("%d", int64(math.Round(v.Num)))
	case KindRatio:
		return f.printer.Sprintf("%.2f", v.Num)
	default:
		return v.Str
	}
}

// Money renders an amount in the configured currency. Amounts are rounded
// to the currency's minor unit.
func (f *Formatter) Money(amount float64) string {
	cur := money.GetCurrency(f.currency)
	if cur == nil {
		return f.printer.Sprintf("%.2f %s", amount, f.currency)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}
