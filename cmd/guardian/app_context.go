package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/softwarewrighter/guardian/internal/config"
	"github.com/softwarewrighter/guardian/internal/logger"
)

func newLogger(flags *rootFlags) (*logger.Logger, error) {
	level := "warn"
	if flags.verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, HumanReadable: true})
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determining config directory: %w", err)
	}
	return filepath.Join(dir, "guardian", "guardian.yaml"), nil
}

// loadConfig resolves and parses the configuration. A missing file at the
// default location falls back to built-in defaults; a missing file at an
// explicitly requested path is an error.
func loadConfig(flags *rootFlags, log *logger.Logger) (*config.Config, string, error) {
	path := flags.configPath
	explicit := path != ""
	if !explicit {
		resolved, err := defaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = resolved
	}

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, path, fmt.Errorf("reading config at %s: %w", path, err)
		}
		log.WithFields(map[string]any{"path": path}).Warn("config file not found, using defaults")
		return &config.Config{Version: "1"}, path, nil
	}

	cfg, err := config.ParseConfig(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
