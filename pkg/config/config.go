package config

import (
	"time"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration for a service instance.
// It supports environment-based initialization, with sensible defaults.
// Every external parameter the pipeline depends on (API query parameters,
// the USD→INR conversion rate) is explicit configuration so tests can
// inject fixtures and rates.
type Config struct {
	ServiceName string // e.g. "market-etl"
	Env         string // e.g. "dev", "uat", "prod"
	LogLevel    string // "debug", "info", etc.

	DatabaseURL       string
	DatabaseURLSecret string // optional AWS Secrets Manager secret id holding the DSN
	AWSRegion         string

	RedisAddr string // empty disables the snapshot cache
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration // TTL for cached snapshots

	NATSURL string // empty disables event publishing

	// CoinGecko markets query.
	CoinGeckoBaseURL string
	VsCurrency       string
	MarketOrder      string
	PerPage          int
	Page             int
	HTTPTimeout      time.Duration

	// Fixed conversion rate for the derived INR price. Not fetched live.
	USDINRRate float64

	Port        int // read API port
	MetricsPort int
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	return &Config{
		ServiceName: GetEnv("SERVICE_NAME", "market-etl"),
		Env:         GetEnv("ENV", "dev"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),

		DatabaseURL:       GetEnv("DATABASE_URL", ""),
		DatabaseURLSecret: GetEnv("DATABASE_URL_SECRET", ""),
		AWSRegion:         GetEnv("AWS_REGION", "us-east-2"),

		RedisAddr: GetEnv("REDIS_ADDR", ""),
		RedisDB:   GetEnvInt("REDIS_DB", 0),
		RedisPass: GetEnv("REDIS_PASS", ""),
		CacheTTL:  GetEnvDuration("CACHE_TTL", 15*time.Minute),

		NATSURL: GetEnv("NATS_URL", ""),

		CoinGeckoBaseURL: GetEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		VsCurrency:       GetEnv("VS_CURRENCY", "usd"),
		MarketOrder:      GetEnv("MARKET_ORDER", "market_cap_desc"),
		PerPage:          GetEnvInt("PER_PAGE", 10),
		Page:             GetEnvInt("PAGE", 1),
		HTTPTimeout:      GetEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		USDINRRate: GetEnvFloat("USD_INR_RATE", 84.0),

		Port:        GetEnvInt("API_PORT", 9040),
		MetricsPort: GetEnvInt("METRICS_PORT", 9041),
	}
}
