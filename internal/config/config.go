package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Engine  EngineConfig
	Digest  DigestConfig
	Sheets  SheetsConfig
	Alerts  AlertsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// SessionConfig holds per-session defaults applied when a create request
// omits them.
type SessionConfig struct {
	DefaultFeedCostPerKg   float64
	DefaultConcentrateFeed float64
	DefaultNitrogenRate    float64
	DefaultTimeframe       string
}

// EngineConfig carries the advisory threshold table. The engines treat these
// as immutable once constructed.
type EngineConfig struct {
	EmissionsThreshold         float64
	CostPerLitreThreshold      float64
	OperationalEfficiencyFloor float64
	NitrogenEfficiencyFloor    float64
	ProteinEfficiencyFloor     float64
}

// DigestConfig holds scheduler-related settings for the daily advisory digest.
type DigestConfig struct {
	CronSchedule string
	Timezone     string
}

// SheetsConfig contains configuration required to export digests to Google
// Sheets. Leaving both fields empty disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// AlertsConfig holds the optional webhook used for high-priority advisory
// notifications. An empty URL disables it.
type AlertsConfig struct {
	WebhookURL string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Session: SessionConfig{
			DefaultFeedCostPerKg:   getenvFloatWithDefault("DEFAULT_FEED_COST_PER_KG", 0.30),
			DefaultConcentrateFeed: getenvFloatWithDefault("DEFAULT_CONCENTRATE_FEED", 8.08),
			DefaultNitrogenRate:    getenvFloatWithDefault("DEFAULT_NITROGEN_RATE", 180),
			DefaultTimeframe:       getenvWithDefault("DEFAULT_TIMEFRAME", "12m"),
		},
		Engine: EngineConfig{
			EmissionsThreshold:         getenvFloatWithDefault("EMISSIONS_THRESHOLD", 1.5),
			CostPerLitreThreshold:      getenvFloatWithDefault("COST_PER_LITRE_THRESHOLD", 0.35),
			OperationalEfficiencyFloor: getenvFloatWithDefault("OPERATIONAL_EFFICIENCY_FLOOR", 70),
			NitrogenEfficiencyFloor:    getenvFloatWithDefault("NITROGEN_EFFICIENCY_FLOOR", 15),
			ProteinEfficiencyFloor:     getenvFloatWithDefault("PROTEIN_EFFICIENCY_FLOOR", 12),
		},
		Digest: DigestConfig{
			CronSchedule: getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 7 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DIGEST_ID"),
		},
		Alerts: AlertsConfig{
			WebhookURL: os.Getenv("ADVISORY_WEBHOOK_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and
// consistent.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Session.DefaultFeedCostPerKg <= 0 {
		return errors.New("DEFAULT_FEED_COST_PER_KG must be positive")
	}

	switch c.Session.DefaultTimeframe {
	case "6m", "12m":
	default:
		return fmt.Errorf("DEFAULT_TIMEFRAME must be 6m or 12m, got %q", c.Session.DefaultTimeframe)
	}

	switch {
	case c.Engine.EmissionsThreshold <= 0:
		return errors.New("EMISSIONS_THRESHOLD must be positive")
	case c.Engine.CostPerLitreThreshold <= 0:
		return errors.New("COST_PER_LITRE_THRESHOLD must be positive")
	case c.Engine.OperationalEfficiencyFloor <= 0:
		return errors.New("OPERATIONAL_EFFICIENCY_FLOOR must be positive")
	case c.Engine.NitrogenEfficiencyFloor <= 0:
		return errors.New("NITROGEN_EFFICIENCY_FLOOR must be positive")
	case c.Engine.ProteinEfficiencyFloor <= 0:
		return errors.New("PROTEIN_EFFICIENCY_FLOOR must be positive")
	}

	if c.Digest.CronSchedule == "" {
		return errors.New("DIGEST_CRON_SCHEDULE must be provided")
	}

	if c.Digest.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	// Sheets export is optional, but partial configuration is a mistake.
	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DIGEST_ID must be set together")
	}

	return nil
}

// SheetsEnabled reports whether the digest export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloatWithDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
