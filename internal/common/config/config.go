package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	// Identity store: "sqlite" or "memory".
	AuthStore string
	DBPath    string

	SessionTTL    time.Duration
	SweepInterval time.Duration // 0 disables the background sweeper
	BcryptCost    int

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	// LoginRateLimit is the number of login attempts per client IP per
	// minute; 0 disables throttling.
	LoginRateLimit int
	CORSOrigins    []string

	// AuthURL is where the gateway forwards auth traffic.
	AuthURL string
}

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		AuthStore: strings.ToLower(getEnv("AUTH_STORE", StoreSQLite)),
		DBPath:    getEnv("AUTH_DB_PATH", "data/db/auth.db"),

		SessionTTL:    getEnvAsDuration("SESSION_TTL", 20*time.Minute),
		SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		BcryptCost:    getEnvAsInt("BCRYPT_COST", 10),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@test.com"),

		LoginRateLimit: getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS"),

		AuthURL: strings.TrimRight(getEnv("AUTH_URL", "http://localhost:3002"), "/"),
	}
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsDuration accepts Go durations ("90s", "20m") and falls back to
// defaultVal on anything unparsable or negative.
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultVal
}
