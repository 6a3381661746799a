package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries process-wide settings resolved once at startup.
type Config struct {
	Environment string

	HTTPAddr string

	DBDriver string
	DBDSN    string

	// Shared secret the billing provider signs webhook deliveries with.
	BillingWebhookSecret string

	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	TracingEnabled   bool
	TracingEndpoint  string
	TracingProtocol  string
	TracingSampling  float64
	ServiceName      string
	ServiceVersion   string
	SeedDefaultPlans bool
}

// Load reads configuration from the environment. A .env file is honored for
// local development and ignored when absent.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Environment:          getEnv("OTW_ENV", "development"),
		HTTPAddr:             getEnv("OTW_HTTP_ADDR", ":8080"),
		DBDriver:             strings.ToLower(getEnv("OTW_DB_DRIVER", "sqlite")),
		DBDSN:                getEnv("OTW_DB_DSN", "file:otw.db?_fk=1"),
		BillingWebhookSecret: os.Getenv("OTW_BILLING_WEBHOOK_SECRET"),
		SubmitRateLimit:      getEnvInt("OTW_SUBMIT_RATE_LIMIT", 30),
		SubmitRateWindow:     getEnvDuration("OTW_SUBMIT_RATE_WINDOW", time.Minute),
		TracingEnabled:       getEnvBool("OTW_TRACING_ENABLED", false),
		TracingEndpoint:      os.Getenv("OTW_TRACING_ENDPOINT"),
		TracingProtocol:      getEnv("OTW_TRACING_PROTOCOL", "grpc"),
		TracingSampling:      getEnvFloat("OTW_TRACING_SAMPLING", 1.0),
		ServiceName:          getEnv("OTW_SERVICE_NAME", "otw-miles"),
		ServiceVersion:       getEnv("OTW_SERVICE_VERSION", "dev"),
		SeedDefaultPlans:     getEnvBool("OTW_SEED_DEFAULT_PLANS", true),
	}
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
