/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultFileName is the config file looked up in the working directory when
// no path is given.
const DefaultFileName = "labranges"

var (
	// ErrDatabaseURLRequired is returned by Validate without a database URL.
	ErrDatabaseURLRequired = errors.New("DATABASE_URL is required")

	// ErrInvalidPoolSize is returned when the connection limits are unusable.
	ErrInvalidPoolSize = errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
)

// Config holds the settings shared by every command. Values come from
// labranges.yaml and the environment, the environment winning.
type Config struct {
	DatabaseURL          string   `mapstructure:"DATABASE_URL"`
	DBDriver             string   `mapstructure:"DB_DRIVER"`
	DBMaxConns           int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32    `mapstructure:"DB_MIN_CONNS"`
	LogLevel             string   `mapstructure:"LOG_LEVEL"`
	PlaceholderText      string   `mapstructure:"PLACEHOLDER_TEXT"`
	QualitativeAllowlist []string `mapstructure:"QUALITATIVE_ALLOWLIST"`
	SexDependentPatterns []string `mapstructure:"SEX_DEPENDENT_PATTERNS"`
	AuditDelimiter       string   `mapstructure:"AUDIT_DELIMITER"`
}

var keys = []string{
	"DATABASE_URL",
	"DB_DRIVER",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"LOG_LEVEL",
	"PLACEHOLDER_TEXT",
	"QUALITATIVE_ALLOWLIST",
	"SEX_DEPENDENT_PATTERNS",
	"AUDIT_DELIMITER",
}

// Load reads the config file at path and the environment. With an empty path
// labranges.yaml in the working directory is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PLACEHOLDER_TEXT", "(Texto libre)")
	v.SetDefault("AUDIT_DELIMITER", ",")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.QualitativeAllowlist = trimAll(cfg.QualitativeAllowlist)
	cfg.SexDependentPatterns = trimAll(cfg.SexDependentPatterns)

	return cfg, nil
}

// Validate checks the settings needed to open a database.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}

	if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("%w: min=%d max=%d", ErrInvalidPoolSize, c.DBMinConns, c.DBMaxConns)
	}

	return nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}
