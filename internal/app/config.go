package app

import (
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

// Config holds runtime options for the CLI. Values come from an
// optional config.yaml in the home directory; flags override.
type Config struct {
	Home           string `yaml:"home"`
	DeviceID       string `yaml:"device_id"`
	OneTimePreKeys int    `yaml:"one_time_prekeys"`
	CompressFiles  bool   `yaml:"compress_files"`
	LogLevel       string `yaml:"log_level"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		OneTimePreKeys: 100,
		LogLevel:       "info",
	}
}

// LoadConfig reads config.yaml from dir over the defaults. A missing
// file is not an error.
func LoadConfig(dir string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Home = dir

	b, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Home == "" {
		cfg.Home = dir
	}
	if cfg.OneTimePreKeys <= 0 {
		cfg.OneTimePreKeys = 100
	}
	return cfg, nil
}
