package database

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds database connection settings for the order journal.
type Config struct {
	Enabled        bool   `yaml:"enabled" envconfig:"JOURNAL_ENABLED"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir is resolved relative to the working directory when not absolute.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// Normalize fills defaults for optional fields.
func (c *Config) Normalize() error {
	if !c.Enabled {
		return nil
	}
	if c.Host == "" || c.Name == "" {
		return fmt.Errorf("journal: host and name are required when enabled")
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 4
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = "migrations"
	}
	return nil
}

// DSN returns the lib/pq keyword connection string. Values are single-quoted
// so passwords may contain spaces, quotes or backslashes.
func (c Config) DSN() string {
	pairs := [][2]string{
		{"user", c.User},
		{"password", c.Password},
		{"host", c.Host},
		{"port", c.Port},
		{"dbname", c.Name},
		{"sslmode", c.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv[0]+"="+quoteDSN(kv[1]))
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// URL returns the postgres:// form expected by golang-migrate.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
