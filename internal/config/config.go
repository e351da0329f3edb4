package config

import (
	"fmt"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig   `env:"SERVER"`
	Database  DatabaseConfig `env:"DB"`
	Logger    LoggerConfig   `env:"LOG"`
	Auth      AuthConfig     `env:"AUTH"`
	Stripe    StripeConfig   `env:"STRIPE"`
	CORS      CORSConfig     `env:"CORS"`
	Mongo     MongoConfig    `env:"MONGO"`
	S3        S3Config       `env:"S3"`
	Promo     PromoConfig    `env:"PROMO"`
	Sweep     SweepConfig    `env:"SWEEP"`
	CartStore string         `env:"CART_STORE" default:"postgres" usage:"cart backend: postgres or mongo"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" default:"0.0.0.0"`
	Port            int           `env:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `env:"HOST" default:"localhost"`
	Port            int    `env:"PORT" default:"5432"`
	User            string `env:"USER" default:"postgres"`
	Password        string `env:"PASSWORD"`
	Database        string `env:"NAME" default:"greencart"`
	MaxConnections  int    `env:"MAX_CONNECTIONS" default:"25"`
	MinConnections  int    `env:"MIN_CONNECTIONS" default:"5"`
	MaxConnLifetime int    `env:"MAX_CONN_LIFETIME" default:"300"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LEVEL" default:"info"`
	Format string `env:"FORMAT" default:"json"` // "json" or "console"
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret   string `env:"JWT_SECRET"`
	SellerEmail string `env:"SELLER_EMAIL"`
}

// StripeConfig holds payment provider settings.
type StripeConfig struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Currency      string `env:"CURRENCY" default:"inr"`
	FrontendURL   string `env:"FRONTEND_URL" default:"http://localhost:5173"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `env:"ORIGINS" default:"http://localhost:5173"`
	AllowCredentials bool     `env:"ALLOW_CREDENTIALS" default:"true"`
}

// MongoConfig holds the MongoDB cart store connection.
type MongoConfig struct {
	URI      string `env:"URI" default:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" default:"greencart"`
}

// S3Config holds AWS S3 configuration for promo rule files.
type S3Config struct {
	Enabled bool   `env:"ENABLED" default:"false"`
	Bucket  string `env:"BUCKET"`
	Region  string `env:"REGION" default:"us-east-1"`
	Prefix  string `env:"PREFIX" default:"promos/"`
}

// PromoConfig lists promo rule files loaded at startup.
type PromoConfig struct {
	Files []string `env:"FILES"`
}

// SweepConfig controls expiry of abandoned online checkouts.
type SweepConfig struct {
	Interval time.Duration `env:"INTERVAL" default:"15m"`
	TTL      time.Duration `env:"TTL" default:"24h"`
}

// Load loads configuration from environment variables and an optional
// config.yaml in the working directory.
func Load() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownEnvs:   true,
		AllowUnknownFields: true,
		Files:              []string{"config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.SellerEmail == "" {
		return fmt.Errorf("seller email is required")
	}

	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("stripe secret key is required")
	}

	if c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("stripe webhook secret is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.CartStore != "postgres" && c.CartStore != "mongo" {
		return fmt.Errorf("invalid cart store: %s (must be postgres or mongo)", c.CartStore)
	}

	if c.CartStore == "mongo" && c.Mongo.URI == "" {
		return fmt.Errorf("mongo URI is required when the cart store is mongo")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	if c.Sweep.TTL <= 0 {
		return fmt.Errorf("pending order TTL must be positive")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
