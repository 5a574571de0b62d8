package lib

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Port string
	Env  string

	// Connection graph store backend: sqlite, mongo or memory.
	// Members and notifications always live in SQLite.
	StoreDriver   string
	DBPath        string
	MongoURI      string
	MongoDatabase string

	JWTSecret string
	JWTTTL    time.Duration

	AllowOrigins string
}

// LoadConfig reads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		Env:           getEnv("APP_ENV", "development"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreDriverSQLite)),
		DBPath:        getEnv("DB_PATH", "./talentnest.db"),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "talentnest"),
		JWTSecret:     getEnv("JWT_SECRET", "fallback-secret-key"),
		JWTTTL:        getEnvDuration("JWT_TTL", 24*time.Hour),
		AllowOrigins:  getEnv("CORS_ORIGINS", "http://frontend-service:5173, http://localhost:5173"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverSQLite, StoreDriverMemory:
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=%s", StoreDriverMongo)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
