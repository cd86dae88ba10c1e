package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Refresh interval bounds in minutes
const (
	MinRefreshIntervalMinutes     = 5
	MaxRefreshIntervalMinutes     = 1440
	DefaultRefreshIntervalMinutes = 30
)

// DefaultSheetRange is the spreadsheet range read when none is configured
const DefaultSheetRange = "A1:Z3000"

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	InfluxDB     InfluxDBConfig
	GoogleSheets GoogleSheetsConfig
	Kafka        KafkaConfig
	Redis        RedisConfig
	Refresh      RefreshConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// InfluxDBConfig holds InfluxDB v1 connection settings
type InfluxDBConfig struct {
	URL      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// GoogleSheetsConfig holds Google Sheets access settings. An empty
// SpreadsheetID means the spreadsheet source is not configured.
type GoogleSheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	ReadRange       string
}

// KafkaConfig holds Kafka configuration for completion events
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RedisConfig holds the optional snapshot cache settings. An empty Addr
// disables snapshot persistence.
type RedisConfig struct {
	Addr string
}

// RefreshConfig controls the coordinator's polling cycle
type RefreshConfig struct {
	Interval time.Duration
	AutoSync bool
}

// Load reads configuration from a .env file (if present) and environment
// variables, validating the values that have hard requirements.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	influxURL, err := NormalizeInfluxURL(getEnv("INFLUXDB_URL", "http://localhost:8086"))
	if err != nil {
		return nil, fmt.Errorf("invalid INFLUXDB_URL: %w", err)
	}

	sheetsID := getEnv("GOOGLE_SHEETS_ID", "")
	if sheetsID != "" && !ValidateSheetsID(sheetsID) {
		return nil, fmt.Errorf("invalid GOOGLE_SHEETS_ID: %q", sheetsID)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		InfluxDB: InfluxDBConfig{
			URL:      influxURL,
			Username: strings.TrimSpace(getEnv("INFLUXDB_USERNAME", "")),
			Password: strings.TrimSpace(getEnv("INFLUXDB_PASSWORD", "")),
			Database: strings.TrimSpace(getEnv("INFLUXDB_DATABASE", "portfolio")),
			Timeout:  time.Duration(getEnvInt("INFLUXDB_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		GoogleSheets: GoogleSheetsConfig{
			SpreadsheetID:   sheetsID,
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
			ReadRange:       getEnv("SHEET_RANGE", DefaultSheetRange),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "portfolio-events"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Refresh: RefreshConfig{
			Interval: refreshInterval(getEnvInt("UPDATE_INTERVAL_MINUTES", DefaultRefreshIntervalMinutes)),
			AutoSync: getEnvBool("AUTO_SYNC_SHEETS", true),
		},
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server listens on
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// NormalizeInfluxURL validates an InfluxDB URL, defaulting the scheme to
// http and the port to 8086 when missing.
func NormalizeInfluxURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url cannot be empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url format: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid hostname in url: %q", raw)
	}
	if u.Port() == "" {
		u.Host = u.Hostname() + ":8086"
	}
	return u.Scheme + "://" + u.Host, nil
}

// ValidateSheetsID reports whether a Google Sheets document ID looks valid.
// IDs are 40-60 characters of alphanumerics, hyphens and underscores.
func ValidateSheetsID(id string) bool {
	if len(id) < 40 || len(id) > 60 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// refreshInterval clamps the polling interval to the supported range
func refreshInterval(minutes int) time.Duration {
	if minutes < MinRefreshIntervalMinutes {
		minutes = MinRefreshIntervalMinutes
	}
	if minutes > MaxRefreshIntervalMinutes {
		minutes = MaxRefreshIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Invalid boolean for %s: %q, using default %t", key, value, defaultValue)
	}
	return defaultValue
}
