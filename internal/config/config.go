package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	TokenTTL          time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Delivery DeliveryConfig `mapstructure:"delivery" yaml:"delivery"`
}

// DeliveryConfig holds retry parameters for room broadcasts.
type DeliveryConfig struct {
	RetryInterval time.Duration `mapstructure:"retry_interval" yaml:"retry_interval"`
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":4000",
		DatabasePath:      "roomcast.db",
		LogLevel:          "info",
		JWTSecret:         "change-me",
		JWTIssuer:         "roomcast",
		TokenTTL:          7 * 24 * time.Hour,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		Delivery: DeliveryConfig{
			RetryInterval: 1500 * time.Millisecond,
			MaxAttempts:   3,
		},
	}
}
