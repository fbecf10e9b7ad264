package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	minProductionSecretLength = 32
)

type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Auth           AuthConfig           `yaml:"auth"`
	CORS           CORSConfig           `yaml:"cors"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Logging        LoggingConfig        `yaml:"logging"`
	Tracing        TracingConfig        `yaml:"tracing"`
	AdminBootstrap AdminBootstrapConfig `yaml:"admin_bootstrap"`
	Environment    string               `yaml:"environment"`
}

type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	PublicAPIURL string `yaml:"public_api_url"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type CORSConfig struct {
	AllowAllOrigins bool     `yaml:"allow_all_origins"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	LoginPer15Minutes int      `yaml:"login_per_15_minutes"`
	TrustedProxyCIDRs []string `yaml:"trusted_proxy_cidrs"`
	// RedisURL, when set, shares login attempt budgets between instances.
	RedisURL string `yaml:"redis_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// AdminBootstrapConfig provisions an administrator at startup when Email and
// Password are both set.
type AdminBootstrapConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
}

func (a AdminBootstrapConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// Defaults returns the configuration used before any file or environment
// overrides are applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3001,
			PublicAPIURL: "http://localhost:3001/api",
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
		},
		Auth: AuthConfig{
			Issuer: "eventdesk",
		},
		RateLimit: RateLimitConfig{
			LoginPer15Minutes: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: "eventdesk",
			SampleRate:  1.0,
		},
		AdminBootstrap: AdminBootstrapConfig{
			Name: "Admin User",
			Role: "SUPER_ADMIN",
		},
		Environment: EnvDevelopment,
	}
}

// Load builds the configuration from defaults and environment variables.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile overlays the YAML file at path (if any) on the defaults, then
// applies environment variables on top.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Environment, "ENVIRONMENT")
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))

	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.PublicAPIURL, "PUBLIC_API_URL")

	setString(&cfg.Database.URL, "DATABASE_URL")
	setInt(&cfg.Database.MaxConnections, "DATABASE_MAX_CONNECTIONS")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")

	setList(&cfg.CORS.AllowedOrigins, "CORS_ORIGIN")
	if len(cfg.CORS.AllowedOrigins) == 0 && cfg.Environment != EnvProduction {
		cfg.CORS.AllowAllOrigins = true
	}

	setInt(&cfg.RateLimit.LoginPer15Minutes, "RATE_LIMIT_LOGIN")
	setList(&cfg.RateLimit.TrustedProxyCIDRs, "TRUSTED_PROXY_CIDRS")
	setString(&cfg.RateLimit.RedisURL, "RATE_LIMIT_REDIS_URL")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	setBool(&cfg.Tracing.Enabled, "TRACING_ENABLED")
	setString(&cfg.Tracing.Exporter, "TRACING_EXPORTER")
	setString(&cfg.Tracing.OTLPEndpoint, "TRACING_ENDPOINT")
	setFloat(&cfg.Tracing.SampleRate, "TRACING_SAMPLE_RATE")

	setString(&cfg.AdminBootstrap.Email, "ADMIN_EMAIL")
	setString(&cfg.AdminBootstrap.Password, "ADMIN_PASSWORD")
	setString(&cfg.AdminBootstrap.Name, "ADMIN_NAME")
	setString(&cfg.AdminBootstrap.Role, "ADMIN_ROLE")
}

// Validate checks settings that are required regardless of the storage mode.
func (c Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("ENVIRONMENT must be one of development, test, production (got %q)", c.Environment)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535 (got %d)", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.Auth.JWTSecret) < minProductionSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minProductionSecretLength)
		}
		if len(c.CORS.AllowedOrigins) == 0 {
			return errors.New("CORS_ORIGIN is required in production")
		}
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("DATABASE_MAX_CONNECTIONS must be positive (got %d)", c.Database.MaxConnections)
	}
	if c.RateLimit.LoginPer15Minutes < 0 {
		return fmt.Errorf("RATE_LIMIT_LOGIN must not be negative (got %d)", c.RateLimit.LoginPer15Minutes)
	}
	return nil
}

// RequireDatabase reports an error when no database URL is configured.
func (c Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		*dst = parsed
	}
}

func setBool(dst *bool, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		*dst = parsed
	}
}

func setFloat(dst *float64, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if parsed, err := strconv.ParseFloat(value, 64); err == nil {
		*dst = parsed
	}
}

func setList(dst *[]string, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	*dst = items
}
