package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequirePostgresCredentials bool
	MinJWTSecretLength         int
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {MinJWTSecretLength: 1},
		Test:        {MinJWTSecretLength: 1},
		CI:          {MinJWTSecretLength: 1, RequirePostgresCredentials: true},
		Production:  {MinJWTSecretLength: 32, RequirePostgresCredentials: true},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	reqs := requirements[GetEnvironment()]

	var problems []ValidationError

	if len(cfg.JWTSecret) < reqs.MinJWTSecretLength {
		problems = append(problems, ValidationError{"jwt_secret", fmt.Sprintf("must be at least %d characters", reqs.MinJWTSecretLength)})
	}
	if cfg.ServerPort == "" {
		problems = append(problems, ValidationError{"server_port", "is required"})
	}
	if cfg.JWTExpiry <= 0 {
		problems = append(problems, ValidationError{"jwt_expiry", "must be positive"})
	}
	if cfg.RefreshExpiry <= cfg.JWTExpiry {
		problems = append(problems, ValidationError{"refresh_token_expiry", "must be longer than jwt_expiry"})
	}
	if cfg.LoginsPerMinute < 0 {
		problems = append(problems, ValidationError{"logins_per_minute", "must not be negative"})
	}
	if cfg.AITimeout <= 0 {
		problems = append(problems, ValidationError{"ai_timeout", "must be positive"})
	}
	if cfg.ImportsPerHour < 0 {
		problems = append(problems, ValidationError{"imports_per_hour", "must not be negative"})
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			problems = append(problems, ValidationError{"sqlite_path", "is required for the sqlite driver"})
		}
	case DriverPostgres:
		if cfg.DBHost == "" {
			problems = append(problems, ValidationError{"db_host", "is required for the postgres driver"})
		}
		if cfg.DBName == "" {
			problems = append(problems, ValidationError{"db_name", "is required for the postgres driver"})
		}
		if reqs.RequirePostgresCredentials {
			if cfg.DBUser == "" {
				problems = append(problems, ValidationError{"db_user", "is required"})
			}
			if cfg.DBPassword == "" {
				problems = append(problems, ValidationError{"db_password", "is required"})
			}
		}
	default:
		problems = append(problems, ValidationError{"db_driver", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}
