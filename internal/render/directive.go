// Package render turns a Report into layout directives and emits them as
// on-screen markdown panels or a paginated XLSX document. Both outputs are
// driven by the same Layout so they cannot drift apart.
package render

// Kind says how a value is formatted.
type Kind int

const (
	KindText Kind = iota
	KindMoney
	KindPercent
	KindCount
	KindRatio
)

// Value is a typed cell. Formatting is left to the renderer.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

func Money(v float64) Value   { return Value{Kind: KindMoney, Num: v} }
func Percent(v float64) Value { return Value{Kind: KindPercent, Num: v} }
func Count(n int) Value       { return Value{Kind: KindCount, Num: float64(n)} }
func Ratio(v float64) Value   { return Value{Kind: KindRatio, Num: v} }
func Text(s string) Value     { return Value{Kind: KindText, Str: s} }

// Directive is one layout instruction.
type Directive interface {
	directive()
}

// Section starts a titled block within a page.
type Section struct {
	Title string
}

// KPITile is a single labeled headline figure.
type KPITile struct {
	Label string
	Value Value
}

// Table is a grid of rows under fixed column headers.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]Value
}

// ChartKind selects the chart type.
type ChartKind string

const (
	ChartPie  ChartKind = "pie"
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

// Point is one labeled data point.
type Point struct {
	Label string
	Value float64
}

// Series is a named sequence of points.
type Series struct {
	Name   string
	Points []Point
}

// Chart is a pie, bar or line chart. Unit says how point values format.
type Chart struct {
	Title  string
	Kind   ChartKind
	Unit   Kind
	Series []Series
}

// Progress is a labeled progress bar. Percent is 0-100 and may exceed 100.
type Progress struct {
	Label   string
	Percent float64
}

func (Section) directive()  {}
func (KPITile) directive()  {}
func (Table) directive()    {}
func (Chart) directive()    {}
func (Progress) directive() {}

// Page is one printed page or sheet.
type Page struct {
	Title  string
	Blocks []Directive
}
