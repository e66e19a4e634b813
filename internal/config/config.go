// Package config loads runtime configuration from defaults, an optional
// YAML file and LAUTAN_-prefixed environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables before merging, e.g.
// LAUTAN_USERNAME overrides the username key.
const envPrefix = "LAUTAN_"

// Config holds the runtime settings of one pipeline invocation.
type Config struct {
	// CatalogPath locates the archive catalog CSV.
	CatalogPath string `koanf:"catalog_path"`
	// Username and Password authenticate against the OPeNDAP service.
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	// Timeout bounds each remote metadata or data request.
	Timeout time.Duration `koanf:"timeout"`
}

func defaultConfig() *Config {
	return &Config{
		CatalogPath: "sources.csv",
		Timeout:     60 * time.Second,
	}
}

// Load builds the configuration. The file is optional unless a path was
// given explicitly.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = "lautan.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s not found: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
