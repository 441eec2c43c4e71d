// Package config provides unified configuration loading for spikenet.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/spikenet/internal/logging"
	"github.com/nvandessel/spikenet/internal/snnerr"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user spikenet directory under $HOME.
const DirName = ".spikenet"

// SpikenetConfig contains all spikenet configuration settings.
type SpikenetConfig struct {
	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Simulation contains run limits applied to every network.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// History controls the SQLite run history.
	History HistoryConfig `json:"history" yaml:"history"`
}

// LoggingConfig configures spikenet's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the events.jsonl tick trace.
	// "trace" additionally logs every layer's batch on stderr.
	Level string `json:"level" yaml:"level"`
}

// SimulationConfig configures network runs.
type SimulationConfig struct {
	// MaxTicks stops the sink after this many ticks. 0 means unlimited.
	MaxTicks int `json:"max_ticks" yaml:"max_ticks"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir holds history.db and events.jsonl. Empty means ~/.spikenet.
	// Supports ${VAR} expansion.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Default returns a SpikenetConfig with sensible defaults.
func Default() *SpikenetConfig {
	return &SpikenetConfig{
		Logging: LoggingConfig{
			Level: "info",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.spikenet/config.yaml -> environment variables
func Load() (*SpikenetConfig, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit config file. An empty path falls back to
// ~/.spikenet/config.yaml when it exists; a non-empty path must exist.
func LoadPath(path string) (*SpikenetConfig, error) {
	config := Default()

	if path == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(homeDir, DirName, "config.yaml")
			if _, statErr := os.Stat(candidate); statErr == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*SpikenetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w: %w", snnerr.ErrConfig, err)
	}
	config.History.Dir = os.ExpandEnv(config.History.Dir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *SpikenetConfig) Validate() error {
	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: invalid log level: %s (valid: info, debug, trace, or empty for default)", snnerr.ErrConfig, c.Logging.Level)
	}
	if c.Simulation.MaxTicks < 0 {
		return fmt.Errorf("%w: max_ticks must be non-negative, got %d", snnerr.ErrConfig, c.Simulation.MaxTicks)
	}
	return nil
}

// HistoryDir returns the directory for history.db and events.jsonl.
func (c *SpikenetConfig) HistoryDir() (string, error) {
	if c.History.Dir != "" {
		return c.History.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *SpikenetConfig) {
	if v := os.Getenv("SPIKENET_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("SPIKENET_MAX_TICKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.MaxTicks = n
		}
	}

	if v := os.Getenv("SPIKENET_HISTORY_ENABLED"); v != "" {
		config.History.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("SPIKENET_HISTORY_DIR"); v != "" {
		config.History.Dir = v
	}
}
