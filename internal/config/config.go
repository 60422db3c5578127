package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config carries the service's runtime settings, bound from environment
// variables (optionally via a .env file).
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// SnapshotPath is where the ledger is persisted on shutdown and
	// loaded from on start. Empty disables persistence.
	SnapshotPath string `mapstructure:"SNAPSHOT_PATH"`

	// PayerConfigPath points at the clearinghouse payer yaml. Empty
	// falls back to the built-in demo payers.
	PayerConfigPath string `mapstructure:"PAYER_CONFIG_PATH"`

	ShutdownTimeoutSeconds int `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// Load reads configuration from the environment with sane defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("SNAPSHOT_PATH", "data/claims-snapshot.json")
	v.SetDefault("PAYER_CONFIG_PATH", "")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("SNAPSHOT_PATH")
	v.BindEnv("PAYER_CONFIG_PATH")
	v.BindEnv("SHUTDOWN_TIMEOUT_SECONDS")

	// A .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is runnable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be positive, got %d", c.ShutdownTimeoutSeconds)
	}
	return nil
}

// IsDev reports whether the service runs in development mode (console
// logging instead of structured JSON).
func (c *Config) IsDev() bool {
	return c.Env == "development"
}
