package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinTickInterval is the floor for the scheduler tick interval. Alert offsets
// share the same floor so that an alert can never be finer-grained than the
// tick that has to observe it.
const MinTickInterval = 3000 * time.Millisecond

const defaultStaleThreshold = 3600000 * time.Millisecond

// Config holds all configuration for the application.
type Config struct {
	Port   int
	DBPath string

	// Engine
	UsePolling     bool          // self-driven polling loop vs externally-triggered event mode
	TickInterval   time.Duration // floored at MinTickInterval
	StaleThreshold time.Duration // one-time reminders older than this are reaped unfired
	CleanupCron    string        // low-frequency cleanup sweep schedule

	// Notification transport
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	MailFrom       string
	MailRatePerSec float64

	// Delayed-callback service (event mode)
	QStashURL         string
	QStashToken       string
	CurrentSigningKey string
	NextSigningKey    string
	WebhookBaseURL    string
}

// Load reads configuration from environment variables, applying defaults and
// floors. It returns an error when event mode is selected without the
// delayed-callback service settings it needs.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getIntEnv("PORT", 8080),
		DBPath:         getEnv("DB_PATH", "reminders.db"),
		UsePolling:     getBoolEnv("USE_POLLING", true),
		TickInterval:   time.Duration(getIntEnv("TICK_INTERVAL_MS", 3000)) * time.Millisecond,
		StaleThreshold: time.Duration(getIntEnv("STALE_THRESHOLD_MS", 3600000)) * time.Millisecond,
		CleanupCron:    getEnv("CLEANUP_CRON", "0 0 * * *"),

		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getIntEnv("SMTP_PORT", 587),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		MailFrom:       getEnv("MAIL_FROM", "reminders@localhost"),
		MailRatePerSec: getFloatEnv("MAIL_RATE_PER_SEC", 10),

		QStashURL:         getEnv("QSTASH_URL", ""),
		QStashToken:       getEnv("QSTASH_TOKEN", ""),
		CurrentSigningKey: getEnv("QSTASH_CURRENT_SIGNING_KEY", ""),
		NextSigningKey:    getEnv("QSTASH_NEXT_SIGNING_KEY", ""),
		WebhookBaseURL:    getEnv("WEBHOOK_BASE_URL", ""),
	}

	if cfg.TickInterval < MinTickInterval {
		cfg.TickInterval = MinTickInterval
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = defaultStaleThreshold
	}

	if !cfg.UsePolling {
		// Event mode cannot work without the external scheduler.
		for key, val := range map[string]string{
			"QSTASH_URL":                 cfg.QStashURL,
			"QSTASH_TOKEN":               cfg.QStashToken,
			"QSTASH_CURRENT_SIGNING_KEY": cfg.CurrentSigningKey,
			"WEBHOOK_BASE_URL":           cfg.WebhookBaseURL,
		} {
			if val == "" {
				return nil, fmt.Errorf("event mode (USE_POLLING=false) requires %s", key)
			}
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return intValue
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return floatValue
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return boolValue
	}
	return defaultValue
}
