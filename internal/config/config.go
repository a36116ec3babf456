// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/productlens/internal/llm"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	GRPCHealthPort string // empty disables the gRPC health server
	FrontendURL    string
	AllowedOrigins []string
	StoreDriver    string
	DBPath         string

	AnalyzeTimeout    time.Duration
	AnalyzeRateLimit  int
	AnalyzeRateWindow time.Duration

	StaleProcessingAfter time.Duration
	SessionRetention     time.Duration // 0 keeps sessions forever
	JanitorInterval      time.Duration

	ExchangeLog llm.ExchangeLogConfig
}

// Load reads configuration from environment variables. AI credentials are
// not part of Config; llm.Resolver reads them at every analyze call.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	frontend := getEnv("FRONTEND_URL", "")
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		GRPCHealthPort:       getEnv("GRPC_HEALTH_PORT", ""),
		FrontendURL:          frontend,
		AllowedOrigins:       parseOrigins(getEnv("ALLOWED_ORIGINS", ""), frontend),
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DBPath:               getEnv("DB_PATH", "./data/productlens.db"),
		AnalyzeTimeout:       getEnvDuration("ANALYZE_TIMEOUT", 3*time.Minute),
		AnalyzeRateLimit:     getEnvInt("ANALYZE_RATE_LIMIT", 10),
		AnalyzeRateWindow:    getEnvDuration("ANALYZE_RATE_WINDOW", time.Minute),
		StaleProcessingAfter: getEnvDuration("STALE_PROCESSING_AFTER", 15*time.Minute),
		SessionRetention:     getEnvDuration("SESSION_RETENTION", 0),
		JanitorInterval:      getEnvDuration("JANITOR_INTERVAL", time.Minute),
		ExchangeLog: llm.ExchangeLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", false),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/exchanges"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StoreSQLite, c.StoreDriver)
	}
	if c.AnalyzeTimeout <= 0 {
		return fmt.Errorf("ANALYZE_TIMEOUT must be > 0")
	}
	if c.AnalyzeRateLimit <= 0 {
		return fmt.Errorf("ANALYZE_RATE_LIMIT must be > 0")
	}
	if c.AnalyzeRateWindow <= 0 {
		return fmt.Errorf("ANALYZE_RATE_WINDOW must be > 0")
	}
	if c.StaleProcessingAfter <= 0 {
		return fmt.Errorf("STALE_PROCESSING_AFTER must be > 0")
	}
	if c.SessionRetention < 0 {
		return fmt.Errorf("SESSION_RETENTION cannot be negative")
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("JANITOR_INTERVAL must be > 0")
	}
	if c.ExchangeLog.Enabled && c.ExchangeLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ExchangeLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// parseOrigins splits a comma-separated origin list. FRONTEND_URL is always
// allowed; an empty result falls back to the local dev servers.
func parseOrigins(raw, frontend string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	for _, o := range strings.Split(raw, ",") {
		add(o)
	}
	add(frontend)
	if len(out) == 0 {
		return []string{"http://localhost:5173", "http://localhost:3000"}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
