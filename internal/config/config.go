package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool
	GinMode     string

	PinbankBaseURL  string
	PinbankAPIKey   string
	OwnBaseURL      string
	OwnAPIKey       string
	AcquirerTimeout time.Duration

	// Default record cap for batch jobs when the caller passes none.
	BatchDefaultLimit int
	// Minimum age before a processed raw record is eligible for cleanup.
	RetentionMinAge time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "pagwall"),
		DBPassword:  getEnv("DB_PASSWORD", "pagwall_secret"),
		DBName:      getEnv("DB_NAME", "pagwall"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getEnv("AUTO_MIGRATE", "false") == "true",
		GinMode:     getEnv("GIN_MODE", "debug"),

		PinbankBaseURL:  getEnv("PINBANK_BASE_URL", "https://api.pinbank.example"),
		PinbankAPIKey:   getEnv("PINBANK_API_KEY", ""),
		OwnBaseURL:      getEnv("OWN_BASE_URL", "https://api.ownfinancial.example"),
		OwnAPIKey:       getEnv("OWN_API_KEY", ""),
		AcquirerTimeout: getEnvDuration("ACQUIRER_TIMEOUT", 15*time.Second),

		BatchDefaultLimit: getEnvInt("BATCH_DEFAULT_LIMIT", 500),
		RetentionMinAge:   getEnvDuration("RETENTION_MIN_AGE", 2160*time.Hour),
	}
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
