package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx/v2"
)

const (
	moneyFormat   = "#,##0.00"
	percentFormat = "0.0%"
	ratioFormat   = "0.00"

	// maxSheetName is the longest sheet name Excel accepts.
	maxSheetName = 31
)

// XLSX renders pages as a workbook with one sheet per page. Cells keep
// their numeric values; only the number format differs by kind.
type XLSX struct {
	// Currency labels money columns in the sheet header.
	Currency string
}

// Render writes the workbook to w.
func (x *XLSX) Render(w io.Writer, pages []Page) error {
	f, err := x.build(pages)
	if err != nil {
		return &RenderError{Format: "xlsx", Err: err}
	}
	if err := f.Write(w); err != nil {
		return &RenderError{Format: "xlsx", Err: err}
	}
	return nil
}

func (x *XLSX) build(pages []Page) (*xlsx.File, error) {
	f := xlsx.NewFile()
	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	seen := make(map[string]int)
	for _, p := range pages {
		sheet, err := f.AddSheet(sheetName(p.Title, seen))
		if err != nil {
			return nil, err
		}
		sw := &sheetWriter{sheet: sheet, bold: bold}
		sw.title(p.Title)
		if x.Currency != "" {
			sw.row(Text("Amounts in "+x.Currency))
		}
		for _, d := range p.Blocks {
			sw.directive(d)
		}
	}
	return f, nil
}

type sheetWriter struct {
	sheet *xlsx.Sheet
	bold  *xlsx.Style
}

func (s *sheetWriter) directive(d Directive) {
	switch d := d.(type) {
	case Section:
		s.sheet.AddRow()
		s.title(d.Title)
	case KPITile:
		s.row(Text(d.Label), d.Value)
	case Progress:
		s.row(Text(d.Label), Percent(d.Percent), Text(bar(d.Percent, 20)))
	case Table:
		s.sheet.AddRow()
		s.title(d.Title)
		s.header(d.Columns...)
		for _, r := range d.Rows {
			s.row(r...)
		}
	case Chart:
		s.sheet.AddRow()
		s.title(fmt.Sprintf("%s (%s chart)", d.Title, d.Kind))
		if len(d.Series) == 0 {
			return
		}
		cols := []string{""}
		for _, sr := range d.Series {
			cols = append(cols, sr.Name)
		}
		s.header(cols...)
		for i, pt := range d.Series[0].Points {
			vals := []Value{Text(pt.Label)}
			for _, sr := range d.Series {
				if i < len(sr.Points) {
					vals = append(vals, Value{Kind: d.Unit, Num: sr.Points[i].Value})
				}
			}
			s.row(vals...)
		}
	}
}

func (s *sheetWriter) title(text string) {
	c := s.sheet.AddRow().AddCell()
	c.SetString(text)
	c.SetStyle(s.bold)
}

func (s *sheetWriter) header(cols ...string) {
	r := s.sheet.AddRow()
	for _, col := range cols {
		c := r.AddCell()
		c.SetString(col)
		c.SetStyle(s.bold)
	}
}

func (s *sheetWriter) row(vals ...Value) {
	r := s.sheet.AddRow()
	for _, v := range vals {
		setCell(r.AddCell(), v)
	}
}

func setCell(c *xlsx.Cell, v Value) {
	switch v.Kind {
	case KindMoney:
		c.SetFloatWithFormat(v.Num, moneyFormat)
	case KindPercent:
		c.SetFloatWithFormat(v.Num/100, percentFormat)
	case KindCount:
		c.SetInt64(int64(v.Num))
	case KindRatio:
		c.SetFloatWithFormat(v.Num, ratioFormat)
	default:
		c.SetString(v.Str)
	}
}

// sheetName makes a valid, unique sheet name from a page title.
func sheetName(title string, seen map[string]int) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, title)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	if name == "" {
		name = "Sheet"
	}
	seen[name]++
	if n := seen[name]; n > 1 {
		suffix := fmt.Sprintf(" %d", n)
		name = name[:min(len(name), maxSheetName-len(suffix))] + suffix
	}
	return name
}
