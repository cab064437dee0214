package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Stock policies for order placement.
const (
	StockPolicyAtomic     = "atomic"
	StockPolicySequential = "sequential"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	HTTPPort       string
	GRPCHealthPort string

	Store          string
	MongoURI       string
	MongoDBName    string
	MigrationsPath string

	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	RedisAddr     string
	RedisPassword string
	KafkaBrokers  []string

	JWTSecret      string
	UploadDir      string
	StockPolicy    string
	LogLevel       string
	LoginRateRPS   float64
	LoginRateBurst int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "5000"),
		GRPCHealthPort: getEnv("GRPC_HEALTH_PORT", ""),
		Store:          getEnv("STORE", "mongo"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "shop"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		StockPolicy:    strings.ToLower(getEnv("ORDER_STOCK_POLICY", StockPolicyAtomic)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.LoginRateRPS, err = strconv.ParseFloat(getEnv("LOGIN_RATE_RPS", "1"), 64); err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_RPS: %w", err)
	}
	if cfg.LoginRateBurst, err = strconv.Atoi(getEnv("LOGIN_RATE_BURST", "5")); err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_BURST: %w", err)
	}
	if cfg.MongoMaxPoolSize, err = strconv.ParseUint(getEnv("MONGO_MAX_POOL_SIZE", "100"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MONGO_MAX_POOL_SIZE: %w", err)
	}
	if cfg.MongoMinPoolSize, err = strconv.ParseUint(getEnv("MONGO_MIN_POOL_SIZE", "10"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MONGO_MIN_POOL_SIZE: %w", err)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	switch c.StockPolicy {
	case StockPolicyAtomic, StockPolicySequential:
	default:
		return fmt.Errorf("invalid ORDER_STOCK_POLICY %q: want %s or %s", c.StockPolicy, StockPolicyAtomic, StockPolicySequential)
	}
	switch c.Store {
	case "mongo", "memory":
	default:
		return fmt.Errorf("invalid STORE %q: want mongo or memory", c.Store)
	}
	if c.MongoMaxPoolSize == 0 {
		return errors.New("MONGO_MAX_POOL_SIZE must be positive")
	}
	if c.MongoMinPoolSize > c.MongoMaxPoolSize {
		return fmt.Errorf("MONGO_MIN_POOL_SIZE %d exceeds MONGO_MAX_POOL_SIZE %d", c.MongoMinPoolSize, c.MongoMaxPoolSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
