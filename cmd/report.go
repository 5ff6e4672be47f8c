package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/pipeline"
	"github.com/sells-group/portfolio-report/internal/render"
	"github.com/sells-group/portfolio-report/internal/report"
	"github.com/sells-group/portfolio-report/internal/snapshot"
	"github.com/sells-group/portfolio-report/internal/store"
)

const formatJSON = "json"

var (
	reportProject string
	reportStart   string
	reportEnd     string
	reportFormat  string
	reportOut     string
	reportStyle   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the portfolio report once and write it out",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkOutput(reportFormat, reportOut); err != nil {
			return err
		}
		req, err := buildRequest(time.Now())
		if err != nil {
			return err
		}

		gw, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer gw.Close() //nolint:errcheck

		// Render fully before touching --out so a failed run leaves no file.
		var buf bytes.Buffer
		if err := runReport(cmd.Context(), gw, cfg, req, &buf); err != nil {
			return err
		}
		if reportOut == "" {
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return eris.Wrap(err, "write report")
		}
		return eris.Wrapf(os.WriteFile(reportOut, buf.Bytes(), 0o644), "write %s", reportOut)
	},
}

// checkOutput rejects unsupported formats, and xlsx without a file.
func checkOutput(format, out string) error {
	switch format {
	case formatJSON, render.FormatMarkdown:
		return nil
	case render.FormatXLSX:
		if out == "" {
			return eris.New("--out is required for xlsx output")
		}
		return nil
	default:
		return eris.Errorf("unsupported --format %q (json, markdown or xlsx)", format)
	}
}

// buildRequest turns the flags into a validated request. Missing dates fall
// back to the configured default window ending today.
func buildRequest(now time.Time) (report.Request, error) {
	req := report.Request{ProjectFilter: reportProject}
	var err error
	if req.Start, err = report.ParseDate(reportStart); err != nil {
		return report.Request{}, eris.Wrap(err, "parse --start")
	}
	if req.End, err = report.ParseDate(reportEnd); err != nil {
		return report.Request{}, eris.Wrap(err, "parse --end")
	}
	req = req.WithDefaults(report.DefaultRequest(now, cfg.Report.DefaultMonths))
	if err := req.Validate(); err != nil {
		return report.Request{}, err
	}
	return req, nil
}

func runReport(ctx context.Context, gw store.Gateway, c *config.Config, req report.Request, w io.Writer) error {
	engine := pipeline.New(gw, pipeline.NewOptions(c))
	res, err := engine.Run(ctx, req)
	if err != nil {
		var fe *snapshot.FetchError
		if errors.As(err, &fe) {
			zap.L().Error("report: data unavailable", zap.String("collection", string(fe.Collection)), zap.Error(fe.Err))
		}
		return err
	}

	zap.L().Info("report: complete",
		zap.String("run_id", res.RunID),
		zap.Int("skipped", res.Report.Diagnostics.SkippedCount),
		zap.String("format", reportFormat),
	)

	if reportFormat == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res.Report), "encode report")
	}

	opts := render.NewOptions(c.Report)
	if reportFormat == render.FormatMarkdown {
		opts.Style = reportStyle
	}
	return render.Export(w, res.Report, reportFormat, opts)
}

func init() {
	reportCmd.Flags().StringVar(&reportProject, "project", snapshot.AllProjects, "project id, or \"all\"")
	reportCmd.Flags().StringVar(&reportStart, "start", "", "first day of the range (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "last day of the range (YYYY-MM-DD), defaults to today")
	reportCmd.Flags().StringVar(&reportFormat, "format", formatJSON, "output format: json, markdown or xlsx")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output file (stdout when empty)")
	reportCmd.Flags().StringVar(&reportStyle, "style", "", "glamour style for markdown on a terminal (dark, light, notty)")
	rootCmd.AddCommand(reportCmd)
}
