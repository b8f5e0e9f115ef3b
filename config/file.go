package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML overlay read from CONFIG_FILE. Credentials are not
// accepted here; they come from the environment or docker secrets.
type fileConfig struct {
	Server struct {
		Host           string   `yaml:"host"`
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver     string `yaml:"driver"`
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		Name       string `yaml:"name"`
		SSLMode    string `yaml:"ssl_mode"`
		SQLitePath string `yaml:"sqlite_path"`
		Migrations string `yaml:"migrations_dir"`
	} `yaml:"database"`
	Redis struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
		DB   *int   `yaml:"db"`
		URL  string `yaml:"url"`
	} `yaml:"redis"`
	Auth struct {
		TokenExpiry        string `yaml:"token_expiry"`
		RefreshTokenExpiry string `yaml:"refresh_token_expiry"`
		LoginsPerMinute    *int   `yaml:"logins_per_minute"`
	} `yaml:"auth"`
	Snapshots struct {
		Bucket   string `yaml:"bucket"`
		Endpoint string `yaml:"endpoint"`
		Region   string `yaml:"region"`
	} `yaml:"snapshots"`
	AI struct {
		Timeout        string `yaml:"timeout"`
		ImportsPerHour *int   `yaml:"imports_per_hour"`
	} `yaml:"ai"`
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	overlay(&cfg.ServerHost, fc.Server.Host)
	overlay(&cfg.ServerPort, fc.Server.Port)
	if len(fc.Server.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.Server.AllowedOrigins
	}

	overlay(&cfg.DBDriver, fc.Database.Driver)
	overlay(&cfg.DBHost, fc.Database.Host)
	overlay(&cfg.DBPort, fc.Database.Port)
	overlay(&cfg.DBName, fc.Database.Name)
	overlay(&cfg.DBSSLMode, fc.Database.SSLMode)
	overlay(&cfg.SQLitePath, fc.Database.SQLitePath)
	overlay(&cfg.MigrationsDir, fc.Database.Migrations)

	overlay(&cfg.RedisHost, fc.Redis.Host)
	overlay(&cfg.RedisPort, fc.Redis.Port)
	overlay(&cfg.RedisURL, fc.Redis.URL)
	if fc.Redis.DB != nil {
		cfg.RedisDB = *fc.Redis.DB
	}

	overlay(&cfg.S3Bucket, fc.Snapshots.Bucket)
	overlay(&cfg.S3Endpoint, fc.Snapshots.Endpoint)
	overlay(&cfg.AWSRegion, fc.Snapshots.Region)

	if fc.AI.ImportsPerHour != nil {
		cfg.ImportsPerHour = *fc.AI.ImportsPerHour
	}
	if fc.Auth.LoginsPerMinute != nil {
		cfg.LoginsPerMinute = *fc.Auth.LoginsPerMinute
	}
	if err := overlayDuration(&cfg.RefreshExpiry, "auth.refresh_token_expiry", fc.Auth.RefreshTokenExpiry); err != nil {
		return err
	}

	if err := overlayDuration(&cfg.JWTExpiry, "auth.token_expiry", fc.Auth.TokenExpiry); err != nil {
		return err
	}
	return overlayDuration(&cfg.AITimeout, "ai.timeout", fc.AI.Timeout)
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, v, err)
	}
	*dst = d
	return nil
}
