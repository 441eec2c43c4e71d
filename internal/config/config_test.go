package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/spikenet/internal/snnerr"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SPIKENET_LOG_LEVEL", "SPIKENET_MAX_TICKS", "SPIKENET_HISTORY_ENABLED", "SPIKENET_HISTORY_DIR"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	config := Default()

	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if config.Simulation.MaxTicks != 0 {
		t.Errorf("expected unlimited MaxTicks, got %d", config.Simulation.MaxTicks)
	}
	if !config.History.Enabled {
		t.Error("expected history enabled by default")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	t.Setenv("SPIKENET_TEST_DIR", tmpDir)

	configContent := `
logging:
  level: debug
simulation:
  max_ticks: 50
history:
  enabled: false
  dir: ${SPIKENET_TEST_DIR}/hist
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", config.Logging.Level)
	}
	if config.Simulation.MaxTicks != 50 {
		t.Errorf("MaxTicks = %d, want 50", config.Simulation.MaxTicks)
	}
	if config.History.Enabled {
		t.Error("expected history disabled")
	}
	if want := filepath.Join(tmpDir, "hist"); config.History.Dir != want {
		t.Errorf("Dir = %q, want %q", config.History.Dir, want)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  max_ticks: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if config.Logging.Level != "info" || !config.History.Enabled {
		t.Errorf("defaults lost: %+v", config)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("logging: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromFile(bad)
	if !errors.Is(err, snnerr.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_HomeConfigAndEnv(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, DirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("logging:\n  level: trace\nsimulation:\n  max_ticks: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Logging.Level != "trace" || config.Simulation.MaxTicks != 10 {
		t.Errorf("file values not applied: %+v", config)
	}

	t.Setenv("SPIKENET_MAX_TICKS", "25")
	t.Setenv("SPIKENET_HISTORY_ENABLED", "0")
	t.Setenv("SPIKENET_HISTORY_DIR", "/tmp/spikenet-hist")
	t.Setenv("SPIKENET_LOG_LEVEL", "debug")

	config, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Simulation.MaxTicks != 25 {
		t.Errorf("MaxTicks = %d, want 25", config.Simulation.MaxTicks)
	}
	if config.History.Enabled {
		t.Error("expected env to disable history")
	}
	if config.History.Dir != "/tmp/spikenet-hist" {
		t.Errorf("Dir = %q", config.History.Dir)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Level = %q", config.Logging.Level)
	}
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", config.Logging.Level)
	}
}

func TestLoad_InvalidMaxTicksEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SPIKENET_MAX_TICKS", "many")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Simulation.MaxTicks != 0 {
		t.Errorf("MaxTicks = %d, want 0", config.Simulation.MaxTicks)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SpikenetConfig)
		wantErr bool
	}{
		{"default", func(*SpikenetConfig) {}, false},
		{"empty level", func(c *SpikenetConfig) { c.Logging.Level = "" }, false},
		{"trace level", func(c *SpikenetConfig) { c.Logging.Level = "trace" }, false},
		{"bad level", func(c *SpikenetConfig) { c.Logging.Level = "loud" }, true},
		{"negative max ticks", func(c *SpikenetConfig) { c.Simulation.MaxTicks = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, snnerr.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestHistoryDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c := Default()
	dir, err := c.HistoryDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, DirName); dir != want {
		t.Errorf("HistoryDir = %q, want %q", dir, want)
	}

	c.History.Dir = "/var/spikenet"
	if dir, _ := c.HistoryDir(); dir != "/var/spikenet" {
		t.Errorf("HistoryDir = %q", dir)
	}
}

func TestLoadPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  max_ticks: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if config.Simulation.MaxTicks != 7 {
		t.Errorf("MaxTicks = %d, want 7", config.Simulation.MaxTicks)
	}

	if _, err := LoadPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing config")
	}
}
