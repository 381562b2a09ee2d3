package cmd

import (
	"fmt"

	"github.com/sarchlab/memhier/config"
)

// loadConfig reads the configuration file, or starts from the defaults
// when no file is given. Environment overrides apply either way.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	if err := config.LoadDotEnv("."); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("default configuration: %w", err)
	}

	return cfg, nil
}
