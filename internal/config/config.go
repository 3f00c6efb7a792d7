// Package config loads settings from config.yaml and SWIGGY_* environment
// variables. Env wins over file, file wins over defaults. `${VAR}`
// references in the file expand from the environment so secrets stay out
// of checked-in config.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Agent     AgentConfig     `koanf:"agent"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	User      UserConfig      `koanf:"user"`
	Location  LocationConfig  `koanf:"location"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
}

type AgentConfig struct {
	BaseURL string `koanf:"base_url"`
}

type CatalogConfig struct {
	BaseURL string `koanf:"base_url"`
}

type UserConfig struct {
	ID string `koanf:"id"`
}

type LocationConfig struct {
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

// ServerConfig and StorageConfig only matter to the fakeagent binary.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // memory or sqlite
	DSN    string `koanf:"dsn"`
}

// Load reads path (skipped when empty or missing) and overlays SWIGGY_*
// environment variables, where SWIGGY_AGENT__BASE_URL maps to
// agent.base_url.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			expanded := []byte(os.ExpandEnv(string(b)))
			if err := k.Load(rawbytes.Provider(expanded), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("SWIGGY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "SWIGGY_")), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]any{
		"agent.base_url":     "http://localhost:8000",
		"catalog.base_url":   "http://localhost:8000",
		"user.id":            "default_user",
		"location.latitude":  12.9716,
		"location.longitude": 77.5946,
		"log.level":          "info",
		"log.format":         "text",
		"telemetry.enabled":  false,
		"server.addr":        ":8000",
		"storage.driver":     "memory",
		"storage.dsn":        "file:fakeagent.db",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
