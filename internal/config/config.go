// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Policy    PolicyConfig    `koanf:"policy"`
	PayPal    PayPalConfig    `koanf:"paypal"`
	Payment   PaymentConfig   `koanf:"payment"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	OpTimeout    time.Duration `koanf:"op_timeout"`
}

type JWTConfig struct {
	PrivateKeyPath    string        `koanf:"private_key_path"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
	Issuer            string        `koanf:"issuer"`
	Audience          string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// PolicyConfig holds the entitlement constants. They are read once at
// startup and never change for the life of the process.
type PolicyConfig struct {
	FreeAccessLimit     int      `koanf:"free_access_limit"`
	PremiumThreshold    string   `koanf:"premium_threshold"`
	Currency            string   `koanf:"currency"`
	ReservedComponentID string   `koanf:"reserved_component_id"`
	ComponentTypes      []string `koanf:"component_types"`
}

type PayPalConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	BaseURL      string        `koanf:"base_url"`
	BrandName    string        `koanf:"brand_name"`
	Timeout      time.Duration `koanf:"timeout"`
}

type PaymentConfig struct {
	PublicBaseURL       string        `koanf:"public_base_url"`
	SuccessURL          string        `koanf:"success_url"`
	CancelURL           string        `koanf:"cancel_url"`
	ErrorURL            string        `koanf:"error_url"`
	MinAmount           string        `koanf:"min_amount"`
	MaxAmount           string        `koanf:"max_amount"`
	OrderAttempts       int           `koanf:"order_attempts"`
	OrderAttemptsWindow time.Duration `koanf:"order_attempts_window"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Component Store",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.driver":             "pgx",
		"database.auto_migrate":       false,
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.dial_timeout":   "5s",
		"redis.op_timeout":     "2s",

		"jwt.access_token_expire": "1h",
		"jwt.issuer":              "component-store",
		"jwt.audience":            "component-store-api",
		"jwt.private_key_path":    "keys/private.pem",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "component-store",

		"policy.free_access_limit":     2,
		"policy.premium_threshold":     "50.00",
		"policy.currency":              "MXN",
		"policy.reserved_component_id": "premium-access",
		"policy.component_types": []string{
			"button",
			"card",
			"modal",
			"navigation",
			"form",
			"layout",
			"animation",
			"other",
		},

		"paypal.base_url":   "https://api-m.sandbox.paypal.com",
		"paypal.brand_name": "Component Store",
		"paypal.timeout":    "15s",

		"payment.public_base_url":       "http://localhost:8080",
		"payment.success_url":           "http://localhost:3000/payment/success",
		"payment.cancel_url":            "http://localhost:3000/payment/cancel",
		"payment.error_url":             "http://localhost:3000/payment/error",
		"payment.min_amount":            "1.00",
		"payment.max_amount":            "10000.00",
		"payment.order_attempts":        10,
		"payment.order_attempts_window": "1h",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_DRIVER":             "database.driver",
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"FREE_ACCESS_LIMIT":           "policy.free_access_limit",
	"PREMIUM_THRESHOLD":           "policy.premium_threshold",
	"CURRENCY":                    "policy.currency",
	"RESERVED_COMPONENT_ID":       "policy.reserved_component_id",
	"PAYPAL_API_CLIENT":           "paypal.client_id",
	"PAYPAL_API_SECRET":           "paypal.client_secret",
	"PAYPAL_API_URL":              "paypal.base_url",
	"PAYPAL_BRAND_NAME":           "paypal.brand_name",
	"PUBLIC_BASE_URL":             "payment.public_base_url",
	"PAYMENT_SUCCESS_URL":         "payment.success_url",
	"PAYMENT_CANCEL_URL":          "payment.cancel_url",
	"PAYMENT_ERROR_URL":           "payment.error_url",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if err := c.Policy.validate(); err != nil {
		return err
	}

	return c.Payment.validate()
}

func (p *PolicyConfig) validate() error {
	if p.FreeAccessLimit < 0 {
		return fmt.Errorf("policy.free_access_limit must not be negative")
	}

	threshold, err := p.Threshold()
	if err != nil {
		return err
	}
	if !threshold.IsPositive() {
		return fmt.Errorf("policy.premium_threshold must be positive")
	}

	if p.ReservedComponentID == "" {
		return fmt.Errorf("policy.reserved_component_id is required")
	}

	if p.Currency == "" {
		return fmt.Errorf("policy.currency is required")
	}

	return nil
}

// Threshold parses the configured premium threshold.
func (p *PolicyConfig) Threshold() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(p.PremiumThreshold)
	if err != nil {
		return decimal.Zero, fmt.Errorf(
			"policy.premium_threshold %q: %w", p.PremiumThreshold, err,
		)
	}
	return d, nil
}

func (p *PaymentConfig) validate() error {
	minAmount, maxAmount, err := p.Bounds()
	if err != nil {
		return err
	}

	if !minAmount.IsPositive() {
		return fmt.Errorf("payment.min_amount must be positive")
	}

	if maxAmount.LessThan(minAmount) {
		return fmt.Errorf("payment.max_amount must not be below payment.min_amount")
	}

	if p.OrderAttempts <= 0 || p.OrderAttemptsWindow <= 0 {
		return fmt.Errorf("payment.order_attempts and window must be positive")
	}

	return nil
}

// Bounds parses the accepted donation range.
func (p *PaymentConfig) Bounds() (decimal.Decimal, decimal.Decimal, error) {
	minAmount, err := decimal.NewFromString(p.MinAmount)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf(
			"payment.min_amount %q: %w", p.MinAmount, err,
		)
	}

	maxAmount, err := decimal.NewFromString(p.MaxAmount)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf(
			"payment.max_amount %q: %w", p.MaxAmount, err,
		)
	}

	return minAmount, maxAmount, nil
}

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (p *PayPalConfig) HasCredentials() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}
