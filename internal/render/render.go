package render

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/report"
)

// Supported export formats.
const (
	FormatMarkdown = "markdown"
	FormatXLSX     = "xlsx"
)

// Renderer emits laid out pages.
type Renderer interface {
	Render(w io.Writer, pages []Page) error
}

// Options configures presentation.
type Options struct {
	Currency string
	Locale   string

	// Style enables terminal styling for markdown. Empty means plain.
	Style string
	Width int
}

// NewOptions builds presentation options from configuration.
func NewOptions(cfg config.ReportConfig) Options {
	return Options{Currency: cfg.Currency, Locale: cfg.Locale}
}

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	switch format {
	case FormatMarkdown:
		return &Markdown{Format: NewFormatter(opts.Currency, opts.Locale), Style: opts.Style, Width: opts.Width}, nil
	case FormatXLSX:
		return &XLSX{Currency: opts.Currency}, nil
	default:
		return nil, eris.Errorf("render: unsupported format %q", format)
	}
}

// Export lays out r and renders it in format.
func Export(w io.Writer, r *report.Report, format string, opts Options) error {
	rd, err := New(format, opts)
	if err != nil {
		return err
	}
	return rd.Render(w, Layout(r))
}

// ContentType is the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Extension is the file extension of a format.
func Extension(format string) string {
	if format == FormatMarkdown {
		return ".md"
	}
	return "." + format
}
