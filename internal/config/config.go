package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB        DatabaseConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Feed      FeedConfig
	Assistant AssistantConfig
	Images    ImagesConfig
	Pricing   PricingConfig
	Worker    WorkerConfig
	Admin     AdminConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CatalogConfig locates the catalog document and the snapshot pair on disk.
// ExportDir is the only directory snapshot exports may be written to.
type CatalogConfig struct {
	Path        string
	SnapshotNew string
	SnapshotOld string
	ShopName    string
	ExportDir   string
}

// FeedConfig contains the Telegram bot credentials for pulling price lists.
type FeedConfig struct {
	BotToken       string
	ChatID         string
	RequestMessage string
}

// AssistantConfig contains the OpenAI assistant credentials.
type AssistantConfig struct {
	BaseURL     string
	APIKey      string
	AssistantID string
	MaxRetries  int
	CacheTTL    time.Duration
}

// ImagesConfig tunes the image search step.
type ImagesConfig struct {
	BaseURL    string
	MaxResults int
}

// PricingConfig selects the markup table and an optional override file.
type PricingConfig struct {
	Table     string
	TablePath string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	SyncInterval time.Duration
	FeedInterval time.Duration
	BuildWorkers int
}

// AdminConfig carries the single operator credential for the override editor.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Catalog files
	cfg.Catalog = CatalogConfig{
		Path:        getEnv("CATALOG_PATH", "data/products.xml"),
		SnapshotNew: getEnv("SNAPSHOT_NEW_PATH", "data/products.xlsx"),
		SnapshotOld: getEnv("SNAPSHOT_OLD_PATH", "data/products_old.xlsx"),
		ShopName:    getEnv("SHOP_NAME", "smart-dostup"),
		ExportDir:   getEnv("CATALOG_EXPORT_DIR", "data/exports"),
	}

	// Telegram feed
	cfg.Feed = FeedConfig{
		BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChatID:         getEnv("TELEGRAM_CHAT_ID", ""),
		RequestMessage: getEnv("TELEGRAM_REQUEST_MESSAGE", "Получить Excel-файл"),
	}

	// OpenAI assistant
	cfg.Assistant = AssistantConfig{
		BaseURL:     getEnv("OPENAI_BASE_URL", ""),
		APIKey:      getEnv("OPENAI_API_KEY", ""),
		AssistantID: getEnv("ASSISTANT_ID", ""),
		MaxRetries:  getEnvInt("OPENAI_MAX_RETRIES", 5),
	}

	// Image search
	cfg.Images = ImagesConfig{
		BaseURL:    getEnv("IMAGE_SEARCH_URL", ""),
		MaxResults: getEnvInt("IMAGE_COUNT", 3),
	}

	// Pricing
	cfg.Pricing = PricingConfig{
		Table:     getEnv("PRICING_TABLE", "standard"),
		TablePath: getEnv("PRICING_TABLE_PATH", ""),
	}

	// Operator credential
	cfg.Admin = AdminConfig{
		Username:     getEnv("ADMIN_USERNAME", "admin"),
		PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	// Workers (durations)
	var err error
	if cfg.Worker.SyncInterval, err = parseDurationEnv("SYNC_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	if cfg.Worker.FeedInterval, err = parseDurationEnv("FEED_INTERVAL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid FEED_INTERVAL: %w", err)
	}
	cfg.Worker.BuildWorkers = getEnvInt("BUILD_WORKERS", 0)
	if cfg.Assistant.CacheTTL, err = parseDurationEnv("ENRICHMENT_CACHE_TTL", "168h"); err != nil {
		return nil, fmt.Errorf("invalid ENRICHMENT_CACHE_TTL: %w", err)
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
