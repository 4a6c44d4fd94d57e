// Package config provides configuration loading and validation from environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string // debug, info, warn, error
	ListenAddr        string // Server listen address (e.g., ":8080")
	MetricsListenAddr string // Metrics listener address (e.g., "localhost:9090")
	DatabasePath      string // SQLite database path
	MailgunDomain     string // Mailgun sending domain (empty = mail disabled)
	MailgunAPIKey     string // Mailgun secret API key
	MailFrom          string // From address for welcome mails
}

// Load parses configuration from environment variables.
// Outside production a .env file in the working directory is loaded first,
// so local development doesn't need exported variables.
func Load() (*Config, error) {
	if os.Getenv("ENV") != "production" {
		// Missing .env is fine; real env vars win either way
		_ = godotenv.Load() //nolint:errcheck
	}

	logLevel := os.Getenv("LOG_LEVEL")
	listenAddr := os.Getenv("LISTEN_ADDR")
	metricsListenAddr := os.Getenv("METRICS_LISTEN_ADDR")
	databasePath := os.Getenv("DATABASE_PATH")
	mailgunDomain := os.Getenv("MAILGUN_DOMAIN")
	mailgunAPIKey := os.Getenv("MAILGUN_SECRET_API_KEY")
	mailFrom := os.Getenv("MAIL_FROM")

	// Set defaults for optional fields
	if logLevel == "" {
		logLevel = "info"
	}

	if listenAddr == "" {
		listenAddr = ":8080"
	}

	if metricsListenAddr == "" {
		metricsListenAddr = "localhost:9090"
	}

	if databasePath == "" {
		databasePath = "/data/buildnumber.db"
	}

	if mailFrom == "" {
		mailFrom = "buildnumber.dev <welcome@buildnumber.dev>"
	}

	cfg := &Config{
		LogLevel:          logLevel,
		ListenAddr:        listenAddr,
		MetricsListenAddr: metricsListenAddr,
		DatabasePath:      databasePath,
		MailgunDomain:     mailgunDomain,
		MailgunAPIKey:     mailgunAPIKey,
		MailFrom:          mailFrom,
	}

	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}

	// Mail is optional, but a half-configured provider is a deployment mistake
	if (c.MailgunDomain == "") != (c.MailgunAPIKey == "") {
		return fmt.Errorf("MAILGUN_DOMAIN and MAILGUN_SECRET_API_KEY must be set together")
	}

	return nil
}

// MailEnabled reports whether a mail provider is configured.
func (c *Config) MailEnabled() bool {
	return c.MailgunDomain != "" && c.MailgunAPIKey != ""
}
