package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Database configuration
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string
	MigrationsDir string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret       string
	JWTExpiry       time.Duration
	RefreshExpiry   time.Duration
	LoginsPerMinute int

	// Snapshot archive
	S3Bucket   string
	S3Endpoint string
	AWSRegion  string

	// Extraction providers
	AITimeout      time.Duration
	ImportsPerHour int
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// defaults returns the baseline every environment starts from.
func defaults() *Config {
	return &Config{
		ServerPort:      "8080",
		ServerHost:      "0.0.0.0",
		AllowedOrigins:  []string{"http://localhost:5173"},
		DBDriver:        DriverPostgres,
		DBHost:          "localhost",
		DBPort:          "5432",
		DBName:          "larder",
		DBSSLMode:       "disable",
		SQLitePath:      "larder.db",
		MigrationsDir:   "migrations",
		RedisPort:       "6379",
		JWTExpiry:       24 * time.Hour,
		RefreshExpiry:   7 * 24 * time.Hour,
		LoginsPerMinute: 5,
		AITimeout:       60 * time.Second,
		ImportsPerHour:  30,
	}
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Load configuration based on environment
	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		if err := loadDevConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
	case Production:
		if err := loadProdConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load production configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnv applies every plain environment variable that is set.
func loadEnv(cfg *Config) error {
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.ServerHost, "SERVER_HOST")
	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBSSLMode, "DB_SSL_MODE")
	setString(&cfg.SQLitePath, "SQLITE_PATH")
	setString(&cfg.MigrationsDir, "MIGRATIONS_DIR")
	setString(&cfg.RedisHost, "REDIS_HOST")
	setString(&cfg.RedisPort, "REDIS_PORT")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.S3Bucket, "S3_BUCKET_NAME")
	setString(&cfg.S3Endpoint, "S3_ENDPOINT")
	setString(&cfg.AWSRegion, "AWS_REGION")

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = n
	}
	if v := os.Getenv("IMPORTS_PER_HOUR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IMPORTS_PER_HOUR %q: %w", v, err)
		}
		cfg.ImportsPerHour = n
	}
	if v := os.Getenv("LOGINS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOGINS_PER_MINUTE %q: %w", v, err)
		}
		cfg.LoginsPerMinute = n
	}
	if err := setDuration(&cfg.JWTExpiry, "JWT_EXPIRY"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RefreshExpiry, "REFRESH_TOKEN_EXPIRY"); err != nil {
		return err
	}
	return setDuration(&cfg.AITimeout, "AI_TIMEOUT")
}

// loadCIConfig loads configuration for CI environment using ONLY environment variables
func loadCIConfig(cfg *Config) error {
	if err := loadEnv(cfg); err != nil {
		return err
	}
	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	if cfg.DBDriver == DriverPostgres && cfg.DBPassword == "" {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	if v := os.Getenv("TEST_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	return nil
}

// loadDevConfig layers environment variables and any docker secrets that exist
// over the defaults, so a bare checkout runs against local services.
func loadDevConfig(cfg *Config) error {
	if err := loadEnv(cfg); err != nil {
		return err
	}
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")

	for name, field := range secretFields(cfg) {
		if v := readSecret(name); v != "" {
			*field = v
		}
	}
	return nil
}

// loadProdConfig loads configuration for production environment; credentials
// come ONLY from docker secrets
func loadProdConfig(cfg *Config) error {
	if err := loadEnv(cfg); err != nil {
		return err
	}
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisPassword = readSecret("redis_password")
	if v := readSecret("redis_url"); v != "" {
		cfg.RedisURL = v
	}
	return nil
}

func secretFields(cfg *Config) map[string]*string {
	return map[string]*string{
		"db_user":        &cfg.DBUser,
		"db_password":    &cfg.DBPassword,
		"jwt_secret":     &cfg.JWTSecret,
		"redis_password": &cfg.RedisPassword,
		"redis_url":      &cfg.RedisURL,
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// PostgresDSN builds the connection string for the postgres drivers.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// SnapshotsEnabled reports whether a snapshot bucket is configured.
func (c *Config) SnapshotsEnabled() bool {
	return c.S3Bucket != ""
}

// RedisEnabled reports whether a redis server is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}
