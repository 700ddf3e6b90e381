package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	OpenMRSBaseURL  string `mapstructure:"OPENMRS_BASE_URL"`
	OpenMRSUsername string `mapstructure:"OPENMRS_USERNAME"`
	OpenMRSPassword string `mapstructure:"OPENMRS_PASSWORD"`
	OpenMRSTimeout  int    `mapstructure:"OPENMRS_TIMEOUT_SECONDS"`
	OpenMRSRetries  int    `mapstructure:"OPENMRS_RETRIES"`

	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`

	SyncRootSetName string `mapstructure:"SYNC_ROOT_SET_NAME"`
	SyncWorkers     int    `mapstructure:"SYNC_WORKERS"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("OPENMRS_TIMEOUT_SECONDS", 30)
	v.SetDefault("OPENMRS_RETRIES", 2)
	v.SetDefault("SYNC_ROOT_SET_NAME", "All Orderables")
	v.SetDefault("SYNC_WORKERS", 8)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"OPENMRS_BASE_URL", "OPENMRS_USERNAME", "OPENMRS_PASSWORD",
		"OPENMRS_TIMEOUT_SECONDS", "OPENMRS_RETRIES",
		"AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL",
		"SYNC_ROOT_SET_NAME", "SYNC_WORKERS", "CORS_ORIGINS",
	} {
		v.BindEnv(key)
	}

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.OpenMRSBaseURL == "" {
		return nil, fmt.Errorf("OPENMRS_BASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// OpenMRSTimeoutDuration returns the configured EMR client timeout.
func (c *Config) OpenMRSTimeoutDuration() time.Duration {
	return time.Duration(c.OpenMRSTimeout) * time.Second
}

// Validate checks that the configuration is safe to run. Outside
// development a token verification source must be configured so the
// sync endpoint never trusts unverified claims.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" && c.AuthJWKSURL == "" && c.AuthIssuer == "" {
		return fmt.Errorf("one of AUTH_SIGNING_KEY, AUTH_JWKS_URL or AUTH_ISSUER is required when ENV=%q", c.Env)
	}
	if c.SyncWorkers < 0 {
		return fmt.Errorf("SYNC_WORKERS must not be negative, got %d", c.SyncWorkers)
	}
	if c.SyncRootSetName == "" {
		return fmt.Errorf("SYNC_ROOT_SET_NAME must not be empty")
	}
	return nil
}
