package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Cache     CacheConfig
	Upstream  UpstreamConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

// CacheConfig controls the social media cache policy.
// TTL must stay strictly greater than FreshnessWindow.
type CacheConfig struct {
	TTL             time.Duration
	FreshnessWindow time.Duration
	CleanupSchedule string
	// RedisTTL caps how long a row lookup is kept in Redis in front of Postgres.
	// Zero disables the Redis read-through layer.
	RedisTTL    time.Duration
	RedisPrefix string
}

type UpstreamConfig struct {
	Timeout           time.Duration
	RequestsPerMinute int
	KeyPrefix         string
	Platforms         map[string]PlatformConfig
}

// PlatformConfig describes the connector endpoint for a single platform.
type PlatformConfig struct {
	BaseURL     string
	AccessToken string
}

type RateLimitConfig struct {
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	Window                   time.Duration
	KeyPrefix                string
}

// knownPlatforms lists the platforms whose connector settings are read from the environment.
var knownPlatforms = []string{"FACEBOOK", "INSTAGRAM", "LINKEDIN", "TWITTER"}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"*"}),
			Environment:    getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "social_analytics"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "./migrations"),
			DSN:             getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Cache: CacheConfig{
			TTL:             getDurationEnv("CACHE_TTL", 30*time.Minute),
			FreshnessWindow: getDurationEnv("CACHE_FRESHNESS_WINDOW", 5*time.Minute),
			CleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "@every 10m"),
			RedisTTL:        getDurationEnv("CACHE_REDIS_TTL", time.Minute),
			RedisPrefix:     getEnv("CACHE_REDIS_PREFIX", "socialcache"),
		},
		Upstream: UpstreamConfig{
			Timeout:           getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
			RequestsPerMinute: getIntEnv("UPSTREAM_RPM", 60),
			KeyPrefix:         getEnv("UPSTREAM_KEY_PREFIX", "ratelimit:upstream"),
			Platforms:         loadPlatforms(),
		},
		RateLimit: RateLimitConfig{
			DefaultRequestsPerMinute: getIntEnv("RATE_LIMIT_RPM", 120),
			BurstMultiplier:          getFloatEnv("RATE_LIMIT_BURST", 2.0),
			Window:                   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:                getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit:company"),
		},
	}

	if cfg.Cache.TTL <= cfg.Cache.FreshnessWindow {
		return nil, fmt.Errorf("CACHE_TTL (%s) must be greater than CACHE_FRESHNESS_WINDOW (%s)", cfg.Cache.TTL, cfg.Cache.FreshnessWindow)
	}

	return cfg, nil
}

// loadPlatforms reads <PLATFORM>_API_URL / <PLATFORM>_API_TOKEN pairs.
// Platforms without a URL are left out.
func loadPlatforms() map[string]PlatformConfig {
	platforms := make(map[string]PlatformConfig)
	for _, p := range knownPlatforms {
		baseURL := getEnv(p+"_API_URL", "")
		if baseURL == "" {
			continue
		}
		platforms[p] = PlatformConfig{
			BaseURL:     strings.TrimRight(baseURL, "/"),
			AccessToken: getEnv(p+"_API_TOKEN", ""),
		}
	}
	return platforms
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
