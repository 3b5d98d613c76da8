package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DEFAULT []byte

// Default returns the built-in configuration.
func Default() (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(DEFAULT, &config); err != nil {
		return nil, fmt.Errorf("default configuration is invalid: %w", err)
	}
	return &config, nil
}

// Process merges the provided configuration files, in order, over the
// built-in defaults. Later files override earlier ones field by field.
// YAML is a superset of JSON, so .json files work too.
func Process(files []string) (*Config, error) {
	config, err := Default()
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
	}

	if config.Server.Room.TickRate <= 0 {
		return nil, fmt.Errorf("room tick rate must be positive")
	}
	if config.Server.Room.SnapshotRate > config.Server.Room.TickRate {
		return nil, fmt.Errorf("snapshot rate cannot exceed tick rate")
	}
	if config.Server.Matchmaking.MinRoster < 2 {
		return nil, fmt.Errorf("matchmaking minRoster must be at least 2")
	}

	return config, nil
}
