package config

import (
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "LISTEN_ADDR", "METRICS_LISTEN_ADDR",
		"DATABASE_PATH", "MAILGUN_DOMAIN", "MAILGUN_SECRET_API_KEY", "MAIL_FROM",
	} {
		t.Setenv(key, "")
	}
	// Keep godotenv from picking up a developer's .env
	t.Setenv("ENV", "production")
}

// TestLoadDefaults verifies defaults when no environment is set.
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.LogLevel)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr ':8080', got %q", cfg.ListenAddr)
	}
	if cfg.MetricsListenAddr != "localhost:9090" {
		t.Errorf("expected default metrics addr 'localhost:9090', got %q", cfg.MetricsListenAddr)
	}
	if cfg.DatabasePath != "/data/buildnumber.db" {
		t.Errorf("expected default database path, got %q", cfg.DatabasePath)
	}
	if cfg.MailEnabled() {
		t.Error("expected mail disabled without Mailgun settings")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

// TestLoadOverrides verifies environment variables win over defaults.
func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("MAILGUN_DOMAIN", "mg.example.com")
	t.Setenv("MAILGUN_SECRET_API_KEY", "key-secret")
	t.Setenv("MAIL_FROM", "hi@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %q", cfg.LogLevel)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("expected listen addr ':9999', got %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "/tmp/test.db" {
		t.Errorf("expected database path '/tmp/test.db', got %q", cfg.DatabasePath)
	}
	if !cfg.MailEnabled() {
		t.Error("expected mail enabled with both Mailgun settings")
	}
	if cfg.MailFrom != "hi@example.com" {
		t.Errorf("expected from address override, got %q", cfg.MailFrom)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should validate, got %v", err)
	}
}

// TestValidateLogLevel verifies the log level enum check.
func TestValidateLogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "verbose"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("expected LOG_LEVEL in error, got %v", err)
	}
}

// TestValidateHalfConfiguredMail verifies domain and key must be set together.
func TestValidateHalfConfiguredMail(t *testing.T) {
	cases := []struct {
		name   string
		domain string
		apiKey string
		wantOK bool
	}{
		{"neither", "", "", true},
		{"both", "mg.example.com", "key-secret", true},
		{"domain only", "mg.example.com", "", false},
		{"key only", "", "key-secret", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:      "info",
				MailgunDomain: tc.domain,
				MailgunAPIKey: tc.apiKey,
			}
			err := cfg.Validate()
			if tc.wantOK && err != nil {
				t.Errorf("expected valid config, got %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Error("expected validation error for half-configured mail")
			}
		})
	}
}
