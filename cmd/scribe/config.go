package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the host-level configuration. Task-scoped settings (base
// directory, mode) come from the command line, never from here.
type Config struct {
	APIKey       string   `yaml:"api_key" env:"SCRIBE_API_KEY"`
	Provider     string   `yaml:"provider" env:"SCRIBE_PROVIDER"`
	Model        string   `yaml:"model" env:"SCRIBE_MODEL"`
	MaxRounds    int      `yaml:"max_rounds" env:"SCRIBE_MAX_ROUNDS"`
	Retry        bool     `yaml:"retry" env:"SCRIBE_RETRY"`
	Includes     []string `yaml:"includes"`
	Instructions string   `yaml:"instructions"`
	LogFile      string   `yaml:"log_file" env:"SCRIBE_LOG_FILE"`
	LogLevel     string   `yaml:"log_level" env:"SCRIBE_LOG_LEVEL"`
}

func defaultConfig() *Config {
	return &Config{
		Provider: "anthropic",
		LogLevel: "warn",
	}
}

// loadConfig reads the YAML config file, then applies environment
// overrides on top. The file is optional; a missing file is not an
// error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = configPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read environment overrides: %w", err)
	}
	return cfg, nil
}

// configPath returns the default config file location.
func configPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scribe", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "scribe", "config.yaml")
}

// resolveAPIKey falls back to the common provider key variables when
// the config carries none.
func (c *Config) resolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	switch c.Provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}
