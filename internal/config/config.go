// Package config loads the daemon settings file. Every field has a usable
// default so the daemon starts with no config at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"` // HTTP/websocket bind address
	WorldFile  string `yaml:"world_file"`  // Catalog YAML (products, traders, currencies, presets)
	DBPath     string `yaml:"db_path"`     // SQLite file; empty selects the in-memory store

	TickIntervalMS int `yaml:"tick_interval_ms"` // Queue drain cadence for both sides

	ParkingSpots int `yaml:"parking_spots"` // Vehicle spots per trader

	CurrencyStackCap      int `yaml:"currency_stack_cap"`      // Max stacks of one denomination per payout
	CurrencyStackQuantity int `yaml:"currency_stack_quantity"` // Max units per created stack

	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		ListenAddr:     ":8081",
		WorldFile:      "world.yaml",
		DBPath:         "data/tradepost.db",
		TickIntervalMS: 500,
		ParkingSpots:   3,
		LogLevel:       "info",
	}
}

// Load reads the YAML settings at path over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.TickIntervalMS < 1 {
		cfg.TickIntervalMS = 500
	}
	return cfg, nil
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}
