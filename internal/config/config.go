package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string
	MongoURI    string // empty runs on in-memory stores
	RedisURL    string // empty disables realtime push

	// Identity
	JWTSecret       string
	JWTAccessExpiry time.Duration

	AllowedOrigins string
	FrontendURL    string

	// Paging
	NotificationPageSize    int
	NotificationMaxPageSize int
	ActivityPageSize        int

	// Invitation e-mail (all of host/port/from or nothing)
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPass          string
	SMTPFrom          string
	MailRatePerMinute int

	UserCacheTTL    time.Duration
	OrphanSweepCron string

	RateLimit RateLimitConfig
}

// RateLimitConfig holds per-minute request limits per client
type RateLimitConfig struct {
	GlobalAPI int
	Mutations int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),
		MongoURI:    getEnv("MONGODB_URI", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTAccessExpiry: getDurationEnv("JWT_ACCESS_EXPIRY", 15*time.Minute),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),

		NotificationPageSize:    getIntEnv("NOTIFICATION_PAGE_SIZE", 30),
		NotificationMaxPageSize: getIntEnv("NOTIFICATION_MAX_PAGE_SIZE", 100),
		ActivityPageSize:        getIntEnv("ACTIVITY_PAGE_SIZE", 15),

		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPass:          getEnv("SMTP_PASS", ""),
		SMTPFrom:          getEnv("SMTP_FROM", ""),
		MailRatePerMinute: getIntEnv("MAIL_RATE_PER_MINUTE", 2),

		UserCacheTTL:    getDurationEnv("USER_CACHE_TTL", 5*time.Minute),
		OrphanSweepCron: getEnv("ORPHAN_SWEEP_CRON", "30 3 * * *"),

		RateLimit: RateLimitConfig{
			GlobalAPI: getIntEnv("RATE_LIMIT_GLOBAL_API", 200),
			Mutations: getIntEnv("RATE_LIMIT_MUTATIONS", 60),
		},
	}
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SMTPConfigured reports whether any SMTP setting is present
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" || c.SMTPFrom != "" || c.SMTPUser != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
