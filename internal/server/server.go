// Package server exposes report runs, the published report and its exports
// over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/pipeline"
	"github.com/sells-group/portfolio-report/internal/render"
	"github.com/sells-group/portfolio-report/internal/report"
	"github.com/sells-group/portfolio-report/internal/snapshot"
)

const maxBodyBytes = 1 << 16

// Server serves the report API.
type Server struct {
	engine  *pipeline.Engine
	cfg     config.ServerConfig
	months  int
	render  render.Options
	now     func() time.Time
	handler http.Handler

	newRenderer func(format string, opts render.Options) (render.Renderer, error)
}

// New creates a Server. now supplies the date that default request ranges
// end on.
func New(engine *pipeline.Engine, cfg *config.Config, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{
		engine: engine,
		cfg:    cfg.Server,
		months: cfg.Report.DefaultMonths,
		render: render.NewOptions(cfg.Report),
		now:    now,

		newRenderer: render.New,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/reports", func(r chi.Router) {
		if s.cfg.RatePerSec > 0 {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RatePerSec), max(s.cfg.Burst, 1))))
		}
		r.Post("/", s.handleRun)
		r.Get("/current", s.handleCurrent)
		r.Get("/current/export", s.handleExport)
	})
	return r
}

// ListenAndServe serves on the configured port until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: starting", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": s.engine.Generation(),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req report.Request
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	req = req.WithDefaults(report.DefaultRequest(s.now(), s.months))
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, eris.Cause(err).Error())
		return
	}

	res, err := s.engine.Run(r.Context(), req)
	var fe *snapshot.FetchError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, pipeline.ErrSuperseded):
		writeError(w, http.StatusConflict, "superseded by a newer request")
	case errors.As(err, &fe):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":      "data unavailable",
			"collection": string(fe.Collection),
		})
	default:
		zap.L().Error("server: report run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report run failed")
	}
}

func (s *Server) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	cur := s.engine.Current()
	if cur == nil {
		writeError(w, http.StatusNotFound, "no report has been generated")
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	cur := s.engine.Current()
	if cur == nil {
		writeError(w, http.StatusNotFound, "no report has been generated")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatXLSX
	}
	rd, err := s.newRenderer(format, s.render)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	var buf bytes.Buffer
	if err := rd.Render(&buf, render.Layout(cur.Report)); err != nil {
		zap.L().Error("server: export failed",
			zap.String("run_id", cur.RunID),
			zap.String("format", format),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "export failed, retry")
		return
	}

	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="portfolio-report-%d%s"`, cur.Generation, render.Extension(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
