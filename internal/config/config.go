package config

import (
	"fmt"
	"strings"

	pkgconfig "github.com/indikaara/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8007"`

	// BaseURL is the public origin of this service; the gateway return URLs
	// are derived from it.
	BaseURL string `env:"STOREFRONT_BASE_URL" envDefault:"http://localhost:8007"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart and pending-order retention
	CartTTLHours       int `env:"CART_TTL_HOURS" envDefault:"24"`
	PendingRefTTLHours int `env:"PENDING_ORDER_TTL_HOURS" envDefault:"48"`

	// PostgreSQL
	PostgresHost          string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort          int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser          string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass          string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB            string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL           string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	DBMaxConns            int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32  `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int    `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int    `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWTSecret verifies Bearer tokens presented directly to this service.
	// Empty means identity comes only from the edge-injected X-User-ID.
	JWTSecret string `env:"JWT_SECRET" envDefault:""`

	// PayU
	PayUMerchantKey string `env:"PAYU_MERCHANT_KEY" envDefault:""`
	PayUSalt        string `env:"PAYU_SALT" envDefault:""`
	PayUPaymentURL  string `env:"PAYU_PAYMENT_URL" envDefault:"https://sandboxsecure.payu.in/_payment"`
	PayUVerifyURL   string `env:"PAYU_VERIFY_URL" envDefault:"https://test.payu.in/merchant/postservice.php?form=2"`
	PayUProductInfo string `env:"PAYU_PRODUCT_INFO" envDefault:"Indikaara Order"`

	// Circuit breaker for gateway verification calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"3"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.6"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("invalid cart TTL: %d hours", c.CartTTLHours)
	}
	if c.PendingRefTTLHours < 1 {
		return fmt.Errorf("invalid pending order TTL: %d hours", c.PendingRefTTLHours)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base URL must be absolute: %q", c.BaseURL)
	}
	if c.Environment != "development" && (c.PayUMerchantKey == "" || c.PayUSalt == "") {
		return fmt.Errorf("PayU merchant key and salt are required outside development")
	}
	return nil
}
