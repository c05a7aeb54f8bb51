package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	DynamoDB DynamoDBConfig
	ShopAPI  ShopAPIConfig
	JWT      JWTConfig
	CORS     CORSConfig
	S3       S3Config
	Session  SessionConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

// StorageConfig selects where user-scoped collections (carts, wishlists) are persisted.
// Backend is one of: memory, redis, postgres, dynamodb.
type StorageConfig struct {
	Backend string
}

type DatabaseConfig struct {
	URL      string // postgres://... takes precedence over the discrete fields
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

type DynamoDBConfig struct {
	Region   string
	Table    string
	Endpoint string // optional, for dynamodb-local
}

type ShopAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type JWTConfig struct {
	Secret        string
	SessionExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type SessionConfig struct {
	MaxIdle       time.Duration
	SweepSchedule string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "memory")),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "storefront"),
			Password: getEnv("DB_PASSWORD", "storefront"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        parseInt(getEnv("REDIS_DB", "0")),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "storefront:"),
		},
		DynamoDB: DynamoDBConfig{
			Region:   getEnv("DYNAMODB_REGION", getEnv("AWS_REGION", "eu-west-1")),
			Table:    getEnv("DYNAMODB_TABLE", "storefront-collections"),
			Endpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		},
		ShopAPI: ShopAPIConfig{
			BaseURL: strings.TrimRight(getEnv("SHOP_API_URL", "http://127.0.0.1:8000/api"), "/"),
			Timeout: parseDuration(getEnv("SHOP_API_TIMEOUT", "10s"), 10*time.Second),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "your-secret-key"),
			SessionExpiry: parseDuration(getEnv("JWT_SESSION_EXPIRY", "24h"), 24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "eu-west-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "storefront-product-images"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Session: SessionConfig{
			MaxIdle:       parseDuration(getEnv("SESSION_MAX_IDLE", "2h"), 2*time.Hour),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	return config, nil
}

// DSN returns a key/value connection string. DATABASE_URL is converted with pq.ParseURL.
func (c *DatabaseConfig) DSN() (string, error) {
	if c.URL != "" {
		dsn, err := pq.ParseURL(c.URL)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		return dsn, nil
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	), nil
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using 0", s)
		return 0
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
