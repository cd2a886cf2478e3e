package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the safety backend.
// Environment variables are automatically parsed from the SHIELDX_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver: postgres, sqlite, memory
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration
	SQLitePath string `envconfig:"SQLITE_PATH" default:""`

	// Connectivity probe
	ProbeURL            string `envconfig:"PROBE_URL" default:"http://www.google.com"`
	ProbeTimeoutSeconds int    `envconfig:"PROBE_TIMEOUT_SECONDS" default:"5"`

	// Notification channels
	TwilioSID        string `envconfig:"TWILIO_SID" default:""`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN" default:""`
	TwilioFromNumber string `envconfig:"TWILIO_PHONE_NUMBER" default:""`
	Fast2SMSAPIKey   string `envconfig:"FAST2SMS_API_KEY" default:""`
	ExpoPushURL      string `envconfig:"EXPO_PUSH_URL" default:"https://exp.host/--/api/v2/push/send"`
	FCMEndpoint      string `envconfig:"FCM_ENDPOINT" default:"https://fcm.googleapis.com/fcm/send"`
	FCMServerKey     string `envconfig:"FCM_SERVER_KEY" default:""`

	// Fallback contact used when a user has no stored emergency contacts.
	DefaultEmergencyContact string `envconfig:"EMERGENCY_CONTACT" default:"+917620101655"`

	// Monitor cadences
	SecurityCheckCron     string `envconfig:"SECURITY_CHECK_CRON" default:"0 * * * *"`
	TimeoutSweepSeconds   int    `envconfig:"TIMEOUT_SWEEP_SECONDS" default:"10"`
	JourneyScanSeconds    int    `envconfig:"JOURNEY_SCAN_SECONDS" default:"30"`
	ResponseWindowSeconds int    `envconfig:"RESPONSE_WINDOW_SECONDS" default:"60"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		c.SQLitePath = "data/shieldx.db"
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true, "memory": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with SHIELDX_
// Example: SHIELDX_HTTP_PORT, SHIELDX_TWILIO_SID
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SHIELDX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("probe_url", cfg.ProbeURL).
		Bool("twilio_configured", cfg.TwilioSID != "").
		Bool("fast2sms_configured", cfg.Fast2SMSAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:             EnvTesting,
		BuildTarget:             "local",
		DBDriver:                "memory",
		HTTPPort:                8080,
		ProbeURL:                "http://www.google.com",
		ProbeTimeoutSeconds:     5,
		ExpoPushURL:             "https://exp.host/--/api/v2/push/send",
		FCMEndpoint:             "https://fcm.googleapis.com/fcm/send",
		DefaultEmergencyContact: "+917620101655",
		SecurityCheckCron:       "0 * * * *",
		TimeoutSweepSeconds:     10,
		JourneyScanSeconds:      30,
		ResponseWindowSeconds:   60,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ProbeTimeout returns the connectivity probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// TimeoutSweepInterval returns the security-check sweep cadence as a duration.
func (c *Config) TimeoutSweepInterval() time.Duration {
	return time.Duration(c.TimeoutSweepSeconds) * time.Second
}

// JourneyScanInterval returns the journey scan cadence as a duration.
func (c *Config) JourneyScanInterval() time.Duration {
	return time.Duration(c.JourneyScanSeconds) * time.Second
}

// ResponseWindow returns how long a challenge may stay unanswered.
func (c *Config) ResponseWindow() time.Duration {
	return time.Duration(c.ResponseWindowSeconds) * time.Second
}
