package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// AdminID is the operator chat that receives order notifications; 0 disables them.
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	// URL is the public base URL; the bot appends /telegram/<secret>.
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// ServerConfig controls the HTTP listener serving health checks and webhook updates.
type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"SERVER_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Listen, s.Port)
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// DispatchConfig tunes the background dispatcher used for outbound calls.
type DispatchConfig struct {
	QueueSize    int           `yaml:"queue_size"`
	Workers      int           `yaml:"workers"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"DISPATCH_MAX_RETRIES"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	MaxDuration  time.Duration `yaml:"max_duration"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"

	// DefaultWebhookSecret is used when no webhook secret is configured.
	DefaultWebhookSecret = "leadgen-secret"
	// DefaultPort matches the port hosting platforms probe by default.
	DefaultPort = 3000
)

// ErrMissingToken is returned when the bot token is not configured.
var ErrMissingToken = errors.New("telegram token is required")

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Dispatch DispatchConfig `yaml:"dispatch"`
}

// Load reads core configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadInto decodes the YAML file at path into dst and overlays environment variables.
// A missing file is not an error: the environment alone may carry the configuration.
func LoadInto(path string, dst any) error {
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, dst); err != nil {
				return fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return ErrMissingToken
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Port < 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if strings.TrimSpace(cfg.Webhook.Secret) == "" {
		cfg.Webhook.Secret = DefaultWebhookSecret
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
		if strings.TrimSpace(cfg.Webhook.URL) != "" {
			rm = RunModeWebhook
		}
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.ContainsAny(cfg.Webhook.Secret, "/?# ") {
			return fmt.Errorf("webhook.secret must be a single URL path segment")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Dispatch.MaxRetries < 0 {
		return fmt.Errorf("dispatch.max_retries must be >= 0")
	}
	return nil
}
