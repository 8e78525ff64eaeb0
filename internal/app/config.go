package app

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/leadgenbot/core/config"
	coredatabase "github.com/m3rciful/leadgenbot/core/database"
)

// DefaultConfigPath is read when neither --config nor CONFIG_PATH is set.
const DefaultConfigPath = "config.yaml"

const (
	defaultRowWidth      = 2
	defaultSweepInterval = time.Minute
	defaultLogTimeout    = 10 * time.Second
)

// CatalogConfig selects the price list.
type CatalogConfig struct {
	// Path to a YAML catalog; empty uses the embedded default.
	Path     string `yaml:"path" envconfig:"CATALOG_PATH"`
	RowWidth int    `yaml:"row_width"`
}

// SessionConfig controls in-memory order sessions.
type SessionConfig struct {
	// IdleTTL drops abandoned sessions; zero keeps them until restart.
	IdleTTL       time.Duration `yaml:"idle_ttl" envconfig:"SESSION_IDLE_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// OrderLogConfig points at the external order log webhook.
type OrderLogConfig struct {
	URL        string        `yaml:"url" envconfig:"ORDER_LOG_URL"`
	LogUpdates bool          `yaml:"log_updates" envconfig:"ORDER_LOG_UPDATES"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Config is the full bot configuration: the shared core plus bot-specific sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Catalog  CatalogConfig       `yaml:"catalog"`
	Session  SessionConfig       `yaml:"session"`
	OrderLog OrderLogConfig      `yaml:"order_log"`
	Journal  coredatabase.Config `yaml:"journal"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path (optional) and the environment, then validates and fills defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Journal.Normalize(); err != nil {
		return err
	}

	if c.Catalog.RowWidth < 0 {
		return fmt.Errorf("catalog.row_width must be >= 0")
	}
	if c.Catalog.RowWidth == 0 {
		c.Catalog.RowWidth = defaultRowWidth
	}

	if c.Session.IdleTTL < 0 || c.Session.SweepInterval < 0 {
		return fmt.Errorf("session durations must be >= 0")
	}
	if c.Session.IdleTTL > 0 && c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = min(defaultSweepInterval, c.Session.IdleTTL)
	}

	if c.OrderLog.Timeout < 0 {
		return fmt.Errorf("order_log.timeout must be >= 0")
	}
	if c.OrderLog.Timeout == 0 {
		c.OrderLog.Timeout = defaultLogTimeout
	}
	if c.OrderLog.LogUpdates && c.OrderLog.URL == "" {
		return fmt.Errorf("order_log.log_updates requires order_log.url")
	}
	return nil
}
