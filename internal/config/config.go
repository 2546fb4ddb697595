package config

import (
	"fmt"
	"net"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"depthview/internal/depthchart"
	"depthview/internal/market"
)

// EnvPrefix namespaces every environment override, e.g. DEPTHVIEW_LOGGING_LEVEL.
const EnvPrefix = "DEPTHVIEW"

type Config struct {
	Logging struct {
		Level  string `yaml:"level" envconfig:"LEVEL"`
		Pretty bool   `yaml:"pretty" envconfig:"PRETTY"`
		// File switches output to a rotated log file.
		File       string `yaml:"file" envconfig:"FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB"`
		MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS"`
		MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS"`
	} `yaml:"logging" envconfig:"LOGGING"`
	Server struct {
		Addr                string   `yaml:"addr" envconfig:"ADDR"`
		Pprof               bool     `yaml:"pprof" envconfig:"PPROF"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds" envconfig:"READ_TIMEOUT_SECONDS"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds" envconfig:"WRITE_TIMEOUT_SECONDS"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds" envconfig:"IDLE_TIMEOUT_SECONDS"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs" envconfig:"ADMIN_ALLOW_CIDRS"`
		WSPingSeconds       int      `yaml:"ws_ping_seconds" envconfig:"WS_PING_SECONDS"`
	} `yaml:"server" envconfig:"SERVER"`
	Chart struct {
		Params depthchart.Params `yaml:",inline" envconfig:"PARAMS"`
		// Markets carries display metadata; charts for unlisted markets use zero decimals.
		Markets []market.Market `yaml:"markets" ignored:"true"`
		// ListedOnly refuses books for markets missing from Markets.
		ListedOnly bool `yaml:"listed_only" envconfig:"LISTED_ONLY"`
	} `yaml:"chart" envconfig:"CHART"`
	Limits struct {
		EventsPerSecond float64 `yaml:"events_per_second" envconfig:"EVENTS_PER_SECOND"`
		Burst           int     `yaml:"burst" envconfig:"BURST"`
		// MaxCharts caps the charts created for unlisted markets.
		MaxCharts int `yaml:"max_charts" envconfig:"MAX_CHARTS"`
	} `yaml:"limits" envconfig:"LIMITS"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Logging.MaxSizeMB = 100
	c.Logging.MaxBackups = 3
	c.Logging.MaxAgeDays = 7
	c.Server.Addr = ":9090"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Server.WSPingSeconds = 30
	c.Chart.Params = depthchart.DefaultParams()
	c.Limits.EventsPerSecond = 60 // one wheel event per frame
	c.Limits.Burst = 120
	c.Limits.MaxCharts = 256
	return c
}

// Load layers the YAML file named by DEPTHVIEW_CONFIG and then DEPTHVIEW_*
// environment variables over the defaults.
func Load() (Config, error) {
	c := defaultConfig()
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return c, fmt.Errorf("env overrides: %w", err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is empty")
	}
	for _, s := range c.Server.AdminAllowCIDRs {
		if _, _, err := net.ParseCIDR(s); err != nil {
			return fmt.Errorf("server.admin_allow_cidrs: %w", err)
		}
	}
	if err := c.Chart.Params.Validate(); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	seen := make(map[string]bool, len(c.Chart.Markets))
	for _, m := range c.Chart.Markets {
		if m.Base.Symbol == "" || m.Quote.Symbol == "" {
			return fmt.Errorf("chart.markets: base and quote symbols are required")
		}
		if seen[m.Key()] {
			return fmt.Errorf("chart.markets: duplicate market %s", m.Key())
		}
		seen[m.Key()] = true
	}
	if c.Limits.EventsPerSecond <= 0 || c.Limits.Burst < 1 {
		return fmt.Errorf("limits: events_per_second must be > 0 and burst >= 1")
	}
	if c.Limits.MaxCharts < 1 {
		return fmt.Errorf("limits: max_charts must be >= 1")
	}
	return nil
}

// Market looks up the configured metadata for a chart key.
func (c Config) Market(key string) (market.Market, bool) {
	for _, m := range c.Chart.Markets {
		if m.Key() == key {
			return m, true
		}
	}
	return market.Market{}, false
}
