package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "portfolio.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 5.0, cfg.Server.RatePerSec, 0.001)
	assert.Equal(t, 10, cfg.Server.Burst)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 15, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, 200, cfg.Fetch.InitialBackoffMs)
	assert.Equal(t, 10, cfg.Fetch.MaxConcurrency)
	assert.Zero(t, cfg.Fetch.RatePerSec)
	assert.Equal(t, 5, cfg.Fetch.BreakerThreshold)
	assert.Equal(t, 30, cfg.Fetch.BreakerResetSecs)
	assert.Equal(t, 6, cfg.Report.DefaultMonths)
	assert.Equal(t, 5, cfg.Report.TopN)
	assert.Equal(t, "EUR", cfg.Report.Currency)
	assert.Equal(t, "hr", cfg.Report.Locale)
	assert.Equal(t, DefaultInsightConfig(), cfg.Insight)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/portfolio
log:
  level: debug
  format: console
server:
  port: 9090
report:
  top_n: 3
insight:
  margin_threshold: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/portfolio", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Report.TopN)
	assert.InDelta(t, 20.0, cfg.Insight.MarginThreshold, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 50.0, cfg.Insight.SalesRateThreshold, 0.001)
	assert.Equal(t, 6, cfg.Report.DefaultMonths)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9090\n"), 0644))
	t.Setenv("PORTFOLIO_SERVER_PORT", "7070")
	t.Setenv("PORTFOLIO_REPORT_CURRENCY", "USD")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "USD", cfg.Report.Currency)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:   StoreConfig{Driver: "sqlite", Path: "x.db"},
			Fetch:   FetchConfig{TimeoutSecs: 1, MaxAttempts: 1},
			Report:  ReportConfig{DefaultMonths: 6, TopN: 5, Currency: "EUR"},
			Insight: DefaultInsightConfig(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: "unsupported store.driver"},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Driver = "postgres" }, wantErr: "store.database_url"},
		{name: "file without path", mutate: func(c *Config) { c.Store.Driver = "file"; c.Store.Path = "" }, wantErr: "store.path"},
		{name: "zero timeout", mutate: func(c *Config) { c.Fetch.TimeoutSecs = 0 }, wantErr: "fetch.timeout_secs"},
		{name: "negative rate", mutate: func(c *Config) { c.Fetch.RatePerSec = -1 }, wantErr: "fetch.rate_per_sec"},
		{name: "zero months", mutate: func(c *Config) { c.Report.DefaultMonths = 0 }, wantErr: "report.default_months"},
		{name: "bad currency", mutate: func(c *Config) { c.Report.Currency = "EURO" }, wantErr: "report.currency"},
		{name: "percent out of range", mutate: func(c *Config) { c.Insight.SalesRateThreshold = 150 }, wantErr: "insight.sales_rate_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Driver: "nope"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store.driver")
	assert.Contains(t, err.Error(), "fetch.timeout_secs")
	assert.Contains(t, err.Error(), "report.top_n")
}

func TestInitLogger(t *testing.T) {
	orig := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
