package config

import (
	"os"
	"path/filepath"

	"github.com/fxnlabs/device-runtime/internal/device"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Devices lists the places the registry is built for, e.g.
	// ["cpu", "accel:0", "pinned"].
	Devices []string `yaml:"devices"`
	Logger  struct {
		Verbosity string `yaml:"verbosity"`
	} `yaml:"logger"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
}

// Default returns the config used when no file is present: CPU only,
// info-level logging, metrics disabled.
func Default() *Config {
	cfg := &Config{Devices: []string{"cpu"}}
	cfg.Logger.Verbosity = "info"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if len(config.Devices) == 0 {
		return nil, errors.Errorf("config %s: devices list is empty", path)
	}
	if config.Logger.Verbosity == "" {
		config.Logger.Verbosity = "info"
	}

	return &config, nil
}

// Places parses the configured device list.
func (c *Config) Places() ([]device.Place, error) {
	places := make([]device.Place, 0, len(c.Devices))
	for _, s := range c.Devices {
		p, err := device.Parse(s)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, nil
}

// GetDefaultConfigPath returns the conventional config location.
func GetDefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".devrt", "config.yaml")
}
