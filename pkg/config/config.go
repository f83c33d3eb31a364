package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                string        `yaml:"port"`
	DBDriver            string        `yaml:"db_driver"`
	DatabaseURL         string        `yaml:"database_url"`
	DBAutoMigrate       bool          `yaml:"db_auto_migrate"`
	JWTSecret           string        `yaml:"jwt_secret"`
	FirebaseCredentials string        `yaml:"firebase_credentials"`
	RedisAddr           string        `yaml:"redis_addr"`
	RedisPassword       string        `yaml:"redis_password"`
	RedisDB             int           `yaml:"redis_db"`
	DedupTTL            time.Duration `yaml:"dedup_ttl"`
	QueryTimeout        time.Duration `yaml:"query_timeout"`
}

// DefaultJWTSecret is a placeholder; tokens signed with it can be forged by anyone
const DefaultJWTSecret = "your-secret-key-change-in-production"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET is unset or still the default placeholder")

func defaults() *Config {
	return &Config{
		Port:         "8080",
		DBDriver:     "postgres",
		JWTSecret:    DefaultJWTSecret,
		DedupTTL:     24 * time.Hour,
		QueryTimeout: 5 * time.Second,
	}
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			log.Printf("[Config] Ignoring config file: %v", err)
		}
	}

	applyEnv(cfg)
	return cfg
}

// Validate rejects settings the API must not serve with
func (c *Config) Validate() error {
	if c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret {
		return ErrInsecureJWTSecret
	}
	return nil
}

// loadFile overlays YAML values onto cfg. Durations use Go syntax ("24h").
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBAutoMigrate = getBool("DB_AUTO_MIGRATE", cfg.DBAutoMigrate)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.FirebaseCredentials = getEnv("FIREBASE_CREDENTIALS", cfg.FirebaseCredentials)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getInt("REDIS_DB", cfg.RedisDB)
	cfg.DedupTTL = getDuration("DEDUP_TTL", cfg.DedupTTL)
	cfg.QueryTimeout = getDuration("QUERY_TIMEOUT", cfg.QueryTimeout)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
