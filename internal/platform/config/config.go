package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr                string
	DatabaseURL         string
	DBMaxConns          int
	DBMinConns          int
	JWTSecret           string
	TokenTTL            time.Duration
	Environment         string
	LogLevel            string
	LogFormat           string
	RunMigrations       bool
	RunSeed             bool
	SeedDefaultPassword string
	EmailEnabled        bool
	EmailFrom           string
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	SMTPUseTLS          bool
	MaxBodyBytes        int64
	RateLimitPerMinute  int
	MetricsEnabled      bool
	ShutdownTimeout     time.Duration
}

// fileConfig mirrors the optional YAML file pointed to by CONFIG_PATH.
// Environment variables always take precedence over file values.
type fileConfig struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Addr               string `yaml:"addr"`
		MaxBodyBytes       int64  `yaml:"max_body_bytes"`
		RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
		ShutdownTimeout    string `yaml:"shutdown_timeout"`
		MetricsEnabled     *bool  `yaml:"metrics_enabled"`
	} `yaml:"server"`
	Database struct {
		URL           string `yaml:"url"`
		MaxConns      int    `yaml:"max_conns"`
		MinConns      int    `yaml:"min_conns"`
		RunMigrations *bool  `yaml:"run_migrations"`
		RunSeed       *bool  `yaml:"run_seed"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret           string `yaml:"jwt_secret"`
		TokenTTL            string `yaml:"token_ttl"`
		SeedDefaultPassword string `yaml:"seed_default_password"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Email struct {
		Enabled      *bool  `yaml:"enabled"`
		From         string `yaml:"from"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		SMTPUseTLS   *bool  `yaml:"smtp_use_tls"`
	} `yaml:"email"`
}

// Load reads the optional YAML file named by CONFIG_PATH and then applies
// environment overrides.
func Load() (Config, error) {
	var file fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &file); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	return fromEnv(file), nil
}

func fromEnv(f fileConfig) Config {
	return Config{
		Addr:                getEnv("APP_ADDR", orString(f.Server.Addr, ":8080")),
		DatabaseURL:         getEnv("DATABASE_URL", f.Database.URL),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", orInt(f.Database.MaxConns, 10)),
		DBMinConns:          getEnvInt("DB_MIN_CONNS", orInt(f.Database.MinConns, 2)),
		JWTSecret:           getEnv("JWT_SECRET", f.Auth.JWTSecret),
		TokenTTL:            getEnvDuration("TOKEN_TTL", orDuration(f.Auth.TokenTTL, 8*time.Hour)),
		Environment:         getEnv("APP_ENV", orString(f.Environment, "development")),
		LogLevel:            getEnv("LOG_LEVEL", orString(f.Log.Level, "info")),
		LogFormat:           getEnv("LOG_FORMAT", orString(f.Log.Format, "json")),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", orBool(f.Database.RunMigrations, true)),
		RunSeed:             getEnvBool("RUN_SEED", orBool(f.Database.RunSeed, true)),
		SeedDefaultPassword: getEnv("SEED_DEFAULT_PASSWORD", f.Auth.SeedDefaultPassword),
		EmailEnabled:        getEnvBool("EMAIL_ENABLED", orBool(f.Email.Enabled, false)),
		EmailFrom:           getEnv("EMAIL_FROM", orString(f.Email.From, "no-reply@example.com")),
		SMTPHost:            getEnv("SMTP_HOST", f.Email.SMTPHost),
		SMTPPort:            getEnvInt("SMTP_PORT", orInt(f.Email.SMTPPort, 587)),
		SMTPUser:            getEnv("SMTP_USER", f.Email.SMTPUser),
		SMTPPassword:        getEnv("SMTP_PASSWORD", f.Email.SMTPPassword),
		SMTPUseTLS:          getEnvBool("SMTP_USE_TLS", orBool(f.Email.SMTPUseTLS, true)),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", int(orInt64(f.Server.MaxBodyBytes, 64<<10)))),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", orInt(f.Server.RateLimitPerMinute, 60)),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", orBool(f.Server.MetricsEnabled, true)),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", orDuration(f.Server.ShutdownTimeout, 10*time.Second)),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func orString(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

func orInt64(value, fallback int64) int64 {
	if value != 0 {
		return value
	}
	return fallback
}

func orBool(value *bool, fallback bool) bool {
	if value != nil {
		return *value
	}
	return fallback
}

func orDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
	}
	if c.IsProduction() && c.RunSeed && strings.TrimSpace(c.SeedDefaultPassword) != "" {
		return fmt.Errorf("SEED_DEFAULT_PASSWORD must be unset or RUN_SEED disabled in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
