package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderError is returned when a renderer cannot emit its output. The
// Report it was given is unaffected.
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: %s export failed: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Markdown renders pages as markdown panels.
type Markdown struct {
	Format *Formatter

	// Style is a glamour standard style ("dark", "light", "notty"). When
	// set the markdown is styled for a terminal.
	Style string
	Width int
}

// Render writes pages to w.
func (m *Markdown) Render(w io.Writer, pages []Page) error {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "# %s\n\n", p.Title)
		for _, d := range p.Blocks {
			m.block(&b, d)
		}
	}

	out := b.String()
	if m.Style != "" {
		styled, err := m.terminal(out)
		if err != nil {
			return &RenderError{Format: "markdown", Err: err}
		}
		out = styled
	}
	if _, err := io.WriteString(w, out); err != nil {
		return &RenderError{Format: "markdown", Err: err}
	}
	return nil
}

func (m *Markdown) terminal(md string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(m.Style)}
	if m.Width > 0 {
		opts = append(opts, glamour.WithWordWrap(m.Width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func (m *Markdown) block(b *strings.Builder, d Directive) {
	switch d := d.(type) {
	case Section:
		fmt.Fprintf(b, "## %s\n\n", d.Title)
	case KPITile:
		fmt.Fprintf(b, "- **%s:** %s\n", d.Label, m.Format.Format(d.Value))
	case Progress:
		fmt.Fprintf(b, "\n`%s` %s %s\n\n", bar(d.Percent, 20), d.Label, m.Format.Format(Percent(d.Percent)))
	case Table:
		m.table(b, d)
	case Chart:
		m.chart(b, d)
	}
}

func (m *Markdown) table(b *strings.Builder, t Table) {
	fmt.Fprintf(b, "\n### %s\n\n", t.Title)
	if len(t.Rows) == 0 {
		b.WriteString("_No data._\n\n")
		return
	}
	b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = escapeCell(m.Format.Format(v))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

// chart renders a chart as a table of its series, one column per series.
func (m *Markdown) chart(b *strings.Builder, c Chart) {
	fmt.Fprintf(b, "\n### %s (%s)\n\n", c.Title, c.Kind)
	if len(c.Series) == 0 || len(c.Series[0].Points) == 0 {
		b.WriteString("_No data._\n\n")
		return
	}
	b.WriteString("| |")
	for _, s := range c.Series {
		b.WriteString(" " + s.Name + " |")
	}
	b.WriteString("\n|" + strings.Repeat(" --- |", len(c.Series)+1) + "\n")
	for i, p := range c.Series[0].Points {
		b.WriteString("| " + escapeCell(p.Label) + " |")
		for _, s := range c.Series {
			cell := ""
			if i < len(s.Points) {
				cell = m.Format.Format(Value{Kind: c.Unit, Num: s.Points[i].Value})
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// bar draws a fixed-width text progress bar. Values outside 0-100 are
// clamped for drawing only.
func bar(percent float64, width int) string {
	filled := int(min(max(percent, 0), 100) / 100 * float64(width))
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
