package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Insight InsightConfig `yaml:"insight" mapstructure:"insight"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the data access gateway backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // postgres | sqlite | file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"` // sqlite database or YAML snapshot file
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// FetchConfig controls how collections are read from the gateway.
type FetchConfig struct {
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxConcurrency   int     `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ReportConfig configures report defaults and presentation.
type ReportConfig struct {
	DefaultMonths int    `yaml:"default_months" mapstructure:"default_months"`
	TopN          int    `yaml:"top_n" mapstructure:"top_n"`
	Currency      string `yaml:"currency" mapstructure:"currency"`
	Locale        string `yaml:"locale" mapstructure:"locale"`
}

// InsightConfig holds the portfolio-level thresholds used by the
// recommendation and risk rules. Percentages are 0-100.
type InsightConfig struct {
	SalesRateThreshold         float64 `yaml:"sales_rate_threshold" mapstructure:"sales_rate_threshold"`
	MarginThreshold            float64 `yaml:"margin_threshold" mapstructure:"margin_threshold"`
	DebtEquityThreshold        float64 `yaml:"debt_equity_threshold" mapstructure:"debt_equity_threshold"`
	BudgetUtilizationThreshold float64 `yaml:"budget_utilization_threshold" mapstructure:"budget_utilization_threshold"`
	LowSalesProjectThreshold   float64 `yaml:"low_sales_project_threshold" mapstructure:"low_sales_project_threshold"`
}

// ServerConfig configures the HTTP report server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	RatePerSec  float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int      `yaml:"burst" mapstructure:"burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultInsightConfig returns the thresholds used when none are configured.
func DefaultInsightConfig() InsightConfig {
	return InsightConfig{
		SalesRateThreshold:         50,
		MarginThreshold:            15,
		DebtEquityThreshold:        2,
		BudgetUtilizationThreshold: 90,
		LowSalesProjectThreshold:   40,
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "portfolio.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.initial_backoff_ms", 200)
	v.SetDefault("fetch.max_concurrency", 10)
	v.SetDefault("fetch.rate_per_sec", 0)
	v.SetDefault("fetch.breaker_threshold", 5)
	v.SetDefault("fetch.breaker_reset_secs", 30)
	v.SetDefault("report.default_months", 6)
	v.SetDefault("report.top_n", 5)
	v.SetDefault("report.currency", "EUR")
	v.SetDefault("report.locale", "hr")
	ins := DefaultInsightConfig()
	v.SetDefault("insight.sales_rate_threshold", ins.SalesRateThreshold)
	v.SetDefault("insight.margin_threshold", ins.MarginThreshold)
	v.SetDefault("insight.debt_equity_threshold", ins.DebtEquityThreshold)
	v.SetDefault("insight.budget_utilization_threshold", ins.BudgetUtilizationThreshold)
	v.SetDefault("insight.low_sales_project_threshold", ins.LowSalesProjectThreshold)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_sec", 5)
	v.SetDefault("server.burst", 10)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent and
// reports every violated constraint at once.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	case "sqlite", "file":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Sprintf("store.path is required for the %s driver", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported store.driver %q", c.Store.Driver))
	}

	if c.Fetch.TimeoutSecs <= 0 {
		errs = append(errs, "fetch.timeout_secs must be > 0")
	}
	if c.Fetch.MaxAttempts <= 0 {
		errs = append(errs, "fetch.max_attempts must be > 0")
	}
	if c.Fetch.MaxConcurrency < 0 {
		errs = append(errs, "fetch.max_concurrency must be >= 0")
	}
	if c.Fetch.RatePerSec < 0 {
		errs = append(errs, "fetch.rate_per_sec must be >= 0")
	}

	if c.Report.DefaultMonths <= 0 {
		errs = append(errs, "report.default_months must be > 0")
	}
	if c.Report.TopN <= 0 {
		errs = append(errs, "report.top_n must be > 0")
	}
	if len(c.Report.Currency) != 3 {
		errs = append(errs, "report.currency must be an ISO 4217 code")
	}

	for name, pct := range map[string]float64{
		"insight.sales_rate_threshold":         c.Insight.SalesRateThreshold,
		"insight.low_sales_project_threshold":  c.Insight.LowSalesProjectThreshold,
		"insight.budget_utilization_threshold": c.Insight.BudgetUtilizationThreshold,
	} {
		if pct < 0 || pct > 100 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 100", name))
		}
	}
	if c.Insight.DebtEquityThreshold < 0 {
		errs = append(errs, "insight.debt_equity_threshold must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
