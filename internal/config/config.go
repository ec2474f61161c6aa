package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/wellknownalpha/bloom-pos/internal/payment/upi"
	pkgconfig "github.com/wellknownalpha/bloom-pos/pkg/config"
	"github.com/wellknownalpha/bloom-pos/pkg/database"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Suggestion providers.
const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Config holds all configuration for the Bloom POS server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeoutSecs int      `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"60"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://localhost:9002" envSeparator:","`
	CatalogCacheMaxAge int      `env:"CATALOG_CACHE_MAX_AGE_SECONDS" envDefault:"0"`

	// Backends
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	SessionStore   string `env:"SESSION_STORE" envDefault:"memory"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"bloompos"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"bloompos_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"bloompos"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Redis
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"12"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Checkout
	DeductStockOnSale bool `env:"CHECKOUT_DEDUCT_STOCK" envDefault:"false"`
	LowStockThreshold int  `env:"LOW_STOCK_THRESHOLD" envDefault:"10"`

	// Mobile payments
	UPIPayeeID      string `env:"UPI_PAYEE_ID" envDefault:"merchant@exampleupi"`
	UPIPayeeName    string `env:"UPI_PAYEE_NAME" envDefault:"Bloom POS"`
	UPICurrency     string `env:"UPI_CURRENCY" envDefault:"USD"`
	UPIQRServiceURL string `env:"UPI_QR_SERVICE_URL" envDefault:"https://api.qrserver.com/v1/create-qr-code/"`
	UPIQRSize       int    `env:"UPI_QR_SIZE" envDefault:"250"`

	// Arrangement suggestions
	AssistantProvider    string `env:"ASSISTANT_PROVIDER" envDefault:"mock"`
	AssistantAPIKey      string `env:"GOOGLE_API_KEY" envDefault:""`
	AssistantModel       string `env:"ASSISTANT_MODEL" envDefault:"gemini-2.0-flash"`
	AssistantBaseURL     string `env:"ASSISTANT_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	AssistantTimeoutSecs int    `env:"ASSISTANT_TIMEOUT_SECONDS" envDefault:"30"`

	// Circuit breaker for the suggestion provider
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load bloom-pos config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom is Load over an explicit variable set.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, environ); err != nil {
		return nil, fmt.Errorf("load bloom-pos config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendMemory, BackendPostgres, c.StorageBackend)
	}
	switch c.SessionStore {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", BackendMemory, BackendRedis, c.SessionStore)
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative, got %d", c.LowStockThreshold)
	}
	switch c.AssistantProvider {
	case ProviderMock:
	case ProviderGemini:
		if c.AssistantAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for the %s provider", ProviderGemini)
		}
		if _, err := url.ParseRequestURI(c.AssistantBaseURL); err != nil {
			return fmt.Errorf("invalid ASSISTANT_BASE_URL %q: %w", c.AssistantBaseURL, err)
		}
	default:
		return fmt.Errorf("ASSISTANT_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderMock, c.AssistantProvider)
	}
	if c.UPIPayeeID == "" {
		return fmt.Errorf("UPI_PAYEE_ID is required")
	}
	if _, err := url.ParseRequestURI(c.UPIQRServiceURL); err != nil {
		return fmt.Errorf("invalid UPI_QR_SERVICE_URL %q: %w", c.UPIQRServiceURL, err)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection settings for the catalog database.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:               c.PostgresHost,
		Port:               c.PostgresPort,
		User:               c.PostgresUser,
		Password:           c.PostgresPass,
		DBName:             c.PostgresDB,
		SSLMode:            c.PostgresSSL,
		MaxConns:           c.DBMaxConns,
		MinConns:           c.DBMinConns,
		MaxConnLifetime:    time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime:    time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
		SlowQueryThreshold: time.Duration(c.SlowQueryThresholdMs) * time.Millisecond,
	}
}

// Redis returns the session store connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// SessionTTL is how long an untouched checkout session is kept.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// UPI returns the mobile payment settings.
func (c *Config) UPI() upi.Config {
	return upi.Config{
		PayeeID:      c.UPIPayeeID,
		PayeeName:    c.UPIPayeeName,
		Currency:     c.UPICurrency,
		QRServiceURL: c.UPIQRServiceURL,
		QRSize:       c.UPIQRSize,
	}
}
