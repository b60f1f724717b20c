// Package config loads engine settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime settings of the engine. Store selection is a
// connection-string concern with no bearing on progression semantics.
type Config struct {
	// DBPath overrides the default SQLite database location.
	DBPath string `env:"ODYSSEY_DB"`

	// Timezone is the calendar used by the validation credit ledger.
	Timezone string `env:"ODYSSEY_TZ" envDefault:"Europe/Paris"`

	// DailyCredits is the validation allowance per calendar day.
	DailyCredits int `env:"ODYSSEY_DAILY_CREDITS" envDefault:"1"`

	// GodMode disables the credit ledger's blocking behavior while
	// leaving accessibility, dependency, and commitment rules enforced.
	GodMode bool `env:"ODYSSEY_GOD_MODE" envDefault:"false"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
