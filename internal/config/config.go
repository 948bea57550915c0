// Package config loads application settings from the environment.
// A local .env file is read first when present (development only).
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every setting the API server and cron jobs need.
type Config struct {
	Port           string
	JWTSecret      string
	AllowedOrigins []string

	// TrustProxy honours X-Forwarded-For / X-Real-IP. Only enable it behind
	// a reverse proxy that overwrites those headers.
	TrustProxy bool

	DB     DBConfig
	Upload UploadConfig
	R2     R2Config
	MQTT   MQTTConfig

	// GapReminderDays is how many unlogged days trigger a reminder.
	GapReminderDays int
}

// DBConfig describes the PostgreSQL connection.
// URL, when set, wins over the individual fields.
type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// DSN returns a pgx-compatible connection string.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// UploadConfig is used by the local filesystem store.
type UploadConfig struct {
	Dir     string
	BaseURL string
}

// R2Config holds Cloudflare R2 credentials. Empty AccountID means "use local storage".
type R2Config struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// Enabled reports whether R2 is fully configured.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// MQTTConfig configures the compliance alert publisher. Empty Broker disables it.
type MQTTConfig struct {
	Broker   string
	ClientID string
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] could not read .env: %v", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")),
		DB: DBConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "seatime"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "uploads"),
			BaseURL: getEnv("UPLOAD_BASE_URL", "/api/files"),
		},
		R2: R2Config{
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
			Bucket:    os.Getenv("R2_BUCKET"),
			PublicURL: os.Getenv("R2_PUBLIC_URL"),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			ClientID: getEnv("MQTT_CLIENT_ID", "seatime-backend"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}

	maxConns, err := getInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.DB.MaxConns = int32(maxConns)

	cfg.TrustProxy, err = getBool("TRUST_PROXY", false)
	if err != nil {
		return nil, err
	}

	cfg.GapReminderDays, err = getInt("GAP_REMINDER_DAYS", 3)
	if err != nil {
		return nil, err
	}
	if cfg.GapReminderDays < 1 {
		return nil, errors.New("GAP_REMINDER_DAYS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, v)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
