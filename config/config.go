package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Acquisition configuration
	PollInterval   time.Duration
	PollTimeout    time.Duration
	WatchURLs      []string
	WatchInterval  time.Duration
	PageSource     string
	BrowserWatch   time.Duration
	ChromeBin      string
	FetchBlockTime time.Duration

	// Storage configuration
	StoreDriver string
	SQLitePath  string
	PostgresDSN string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Messaging configuration
	NATSURL     string
	NATSSubject string

	// HTTP API
	HTTPAddr string

	// Analysis settings
	APIProvider            string
	APIKey                 string
	AutoAnalyze            bool
	AnalysisRatePerMinute  int
	AnalysisCacheTTL       time.Duration
	AnalysisRequestTimeout time.Duration

	// Logging
	ErrorLogFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	pollInterval, _ := strconv.Atoi(getEnv("POLL_INTERVAL_MS", "3000"))
	pollTimeout, _ := strconv.Atoi(getEnv("POLL_TIMEOUT_SECONDS", "30"))
	watchInterval, _ := strconv.Atoi(getEnv("WATCH_INTERVAL_SECONDS", "60"))
	browserWatch, _ := strconv.Atoi(getEnv("BROWSER_WATCH_SECONDS", "120"))
	fetchBlock, _ := strconv.Atoi(getEnv("FETCH_BLOCK_SECONDS", "300"))
	ratePerMinute, _ := strconv.Atoi(getEnv("ANALYSIS_RATE_PER_MINUTE", "6"))
	cacheSeconds, _ := strconv.Atoi(getEnv("ANALYSIS_CACHE_SECONDS", "3600"))
	analysisTimeout, _ := strconv.Atoi(getEnv("ANALYSIS_TIMEOUT_SECONDS", "60"))
	autoAnalyze, _ := strconv.ParseBool(getEnv("AUTO_ANALYZE", "false"))

	return &Config{
		PollInterval:   time.Duration(pollInterval) * time.Millisecond,
		PollTimeout:    time.Duration(pollTimeout) * time.Second,
		WatchURLs:      splitList(getEnv("WATCH_URLS", "")),
		WatchInterval:  time.Duration(watchInterval) * time.Second,
		PageSource:     getEnv("PAGE_SOURCE", "http"),
		BrowserWatch:   time.Duration(browserWatch) * time.Second,
		ChromeBin:      getEnv("CHROME_BIN", ""),
		FetchBlockTime: time.Duration(fetchBlock) * time.Second,

		StoreDriver: getEnv("STORE_DRIVER", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/listings.db"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamMaxLength: streamMaxLength,

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "dealscout.messages"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		APIProvider:            getEnv("API_PROVIDER", "deepseek"),
		APIKey:                 getEnv("API_KEY", ""),
		AutoAnalyze:            autoAnalyze,
		AnalysisRatePerMinute:  ratePerMinute,
		AnalysisCacheTTL:       time.Duration(cacheSeconds) * time.Second,
		AnalysisRequestTimeout: time.Duration(analysisTimeout) * time.Second,

		ErrorLogFile: getEnv("ERROR_LOG_FILE", "./error.log"),

		Environment: getEnv("APP_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration can drive the application
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if c.PollTimeout < c.PollInterval {
		return fmt.Errorf("POLL_TIMEOUT_SECONDS must not be shorter than the poll interval")
	}
	switch c.PageSource {
	case "http", "browser":
	default:
		return fmt.Errorf("unknown PAGE_SOURCE %q", c.PageSource)
	}
	switch c.StoreDriver {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.AnalysisRatePerMinute <= 0 {
		return fmt.Errorf("ANALYSIS_RATE_PER_MINUTE must be positive")
	}
	return nil
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
