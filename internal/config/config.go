// Package config loads service settings from the environment and an optional
// config file through Viper.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the service settings. ConsumeEvents starts a consumer on the
// catalog queue that logs each event; it needs RabbitMQURL.
type Config struct {
	AppPort       string        `mapstructure:"APP_PORT" validate:"required"`
	DBDriver      string        `mapstructure:"DB_DRIVER" validate:"oneof=sqlite postgres"`
	DatabaseDSN   string        `mapstructure:"DATABASE_DSN" validate:"required"`
	RabbitMQURL   string        `mapstructure:"RABBITMQ_URL" validate:"omitempty,url"`
	ConsumeEvents bool          `mapstructure:"RABBITMQ_CONSUME"`
	JWTSecret     string        `mapstructure:"JWT_SECRET" validate:"required,min=8"`
	JWTTTL        time.Duration `mapstructure:"JWT_TTL" validate:"gt=0"`
	LogLevel      string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// SetDefaults registers the default value of every setting on v. JWT_SECRET
// has no default and must be provided.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "katalog.db")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_CONSUME", false)
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads the configuration. Environment variables override the file named
// by CONFIG_FILE, which overrides the defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	// Unmarshal only sees environment variables for keys viper already knows.
	if err := v.BindEnv("JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
