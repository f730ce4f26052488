package config

import (
	"fmt"
	"log"
	"net/url"

	"github.com/spf13/viper"
)

type Config struct {
	Port                     string  `mapstructure:"PORT"`
	Env                      string  `mapstructure:"ENV"`
	DatabaseURL              string  `mapstructure:"DATABASE_URL"`
	DBMaxConns               int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns               int32   `mapstructure:"DB_MIN_CONNS"`
	AuthSigningKey           string  `mapstructure:"AUTH_SIGNING_KEY"`
	DefaultTenant            string  `mapstructure:"DEFAULT_TENANT"`
	SignatureProvider        string  `mapstructure:"SIGNATURE_PROVIDER"`
	VerificationBaseURL      string  `mapstructure:"VERIFICATION_BASE_URL"`
	InteractionServiceURL    string  `mapstructure:"INTERACTION_SERVICE_URL"`
	ValidatorRollout         float64 `mapstructure:"VALIDATOR_ROLLOUT"`
	InteractionRemoteRollout float64 `mapstructure:"INTERACTION_REMOTE_ROLLOUT"`
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
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("SIGNATURE_PROVIDER", "mock")
	v.SetDefault("VERIFICATION_BASE_URL", "http://localhost:8000")
	v.SetDefault("VALIDATOR_ROLLOUT", 1.0)
	v.SetDefault("INTERACTION_REMOTE_ROLLOUT", 0.0)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("DEFAULT_TENANT")
	v.BindEnv("SIGNATURE_PROVIDER")
	v.BindEnv("VERIFICATION_BASE_URL")
	v.BindEnv("INTERACTION_SERVICE_URL")
	v.BindEnv("VALIDATOR_ROLLOUT")
	v.BindEnv("INTERACTION_REMOTE_ROLLOUT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production an
// AUTH_SIGNING_KEY is mandatory so that real bearer authentication is
// enforced, and rollout fractions must stay inside [0, 1].
func (c *Config) Validate() error {
	if c.IsProduction() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required in production")
	}
	if c.ValidatorRollout < 0 || c.ValidatorRollout > 1 {
		return fmt.Errorf("VALIDATOR_ROLLOUT must be within [0, 1], got %v", c.ValidatorRollout)
	}
	if c.InteractionRemoteRollout < 0 || c.InteractionRemoteRollout > 1 {
		return fmt.Errorf("INTERACTION_REMOTE_ROLLOUT must be within [0, 1], got %v", c.InteractionRemoteRollout)
	}
	if c.InteractionServiceURL != "" {
		if _, err := url.ParseRequestURI(c.InteractionServiceURL); err != nil {
			return fmt.Errorf("INTERACTION_SERVICE_URL is not a valid URL: %w", err)
		}
	}
	return nil
}
